package models

import "time"

type Post struct {
	ID        int       `json:"id"`
	AuthorID  int       `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostWithAuthor struct {
	Post
	Author UserSummary `json:"author"`
}

// PostDetail is the single-post view with populated comments.
type PostDetail struct {
	Post
	Author   UserSummary       `json:"author"`
	Comments []CommentWithUser `json:"comments"`
}
