package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"blogspace.com/blogspace-server/middleware"
	"blogspace.com/blogspace-server/models"
	"blogspace.com/blogspace-server/policy"
	"github.com/gorilla/mux"
)

// GetPosts lists all posts with the author summary joined in. An optional
// q parameter filters by case-insensitive substring match on the title.
func GetPosts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		var rows *sql.Rows
		var err error

		if query != "" {
			if len(query) > 100 {
				query = query[:100]
			}
			rows, err = db.Query(`
				SELECT p.id, p.author_id, p.title, p.content,
				       COALESCE(p.image_path, '') as image_path,
				       p.created_at, p.updated_at,
				       u.id, u.username, u.name
				FROM posts p
				JOIN users u ON p.author_id = u.id
				WHERE p.title ILIKE $1
				ORDER BY p.created_at DESC`,
				"%"+query+"%")
		} else {
			rows, err = db.Query(`
				SELECT p.id, p.author_id, p.title, p.content,
				       COALESCE(p.image_path, '') as image_path,
				       p.created_at, p.updated_at,
				       u.id, u.username, u.name
				FROM posts p
				JOIN users u ON p.author_id = u.id
				ORDER BY p.created_at DESC`)
		}

		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to retrieve posts")
			log.Println("GetPosts error:", err)
			return
		}
		defer rows.Close()

		var posts []models.PostWithAuthor
		for rows.Next() {
			var p models.PostWithAuthor
			if err := rows.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content,
				&p.ImagePath, &p.CreatedAt, &p.UpdatedAt,
				&p.Author.ID, &p.Author.Username, &p.Author.Name); err != nil {
				respondError(w, http.StatusInternalServerError, "Error scanning posts")
				log.Println("GetPosts scan error:", err)
				return
			}
			posts = append(posts, p)
		}
		if err := rows.Err(); err != nil {
			respondError(w, http.StatusInternalServerError, "Error iterating posts")
			log.Println("GetPosts rows error:", err)
			return
		}

		respondJSON(w, http.StatusOK, posts)
	}
}

// GetPostByID returns a single post with its author and populated comments.
func GetPostByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id")
			return
		}

		var detail models.PostDetail
		err = db.QueryRow(`
			SELECT p.id, p.author_id, p.title, p.content,
			       COALESCE(p.image_path, '') as image_path,
			       p.created_at, p.updated_at,
			       u.id, u.username, u.name
			FROM posts p
			JOIN users u ON p.author_id = u.id
			WHERE p.id = $1`, id).
			Scan(&detail.ID, &detail.AuthorID, &detail.Title, &detail.Content,
				&detail.ImagePath, &detail.CreatedAt, &detail.UpdatedAt,
				&detail.Author.ID, &detail.Author.Username, &detail.Author.Name)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "Post not found")
			} else {
				respondError(w, http.StatusInternalServerError, "Failed to retrieve post")
				log.Println("GetPostByID error:", err)
			}
			return
		}

		rows, err := db.Query(`
			SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
			       u.username, u.name
			FROM comments c
			JOIN users u ON c.author_id = u.id
			WHERE c.post_id = $1
			ORDER BY c.created_at ASC`, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch comments")
			log.Println("GetPostByID comments error:", err)
			return
		}
		defer rows.Close()

		detail.Comments = []models.CommentWithUser{}
		for rows.Next() {
			var c models.CommentWithUser
			if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content,
				&c.CreatedAt, &c.Username, &c.Name); err != nil {
				respondError(w, http.StatusInternalServerError, "Error scanning comments")
				log.Println("GetPostByID scan error:", err)
				return
			}
			detail.Comments = append(detail.Comments, c)
		}

		respondJSON(w, http.StatusOK, detail)
	}
}

// CreatePost persists a new post owned by the authenticated user.
func CreatePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		var req struct {
			Title     string `json:"title"`
			Content   string `json:"content"`
			ImagePath string `json:"image_path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
			respondError(w, http.StatusBadRequest, "Title and content are required")
			return
		}

		var p models.PostWithAuthor
		err := db.QueryRowContext(r.Context(), `
			INSERT INTO posts (author_id, title, content, image_path, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), NOW(), NOW())
			RETURNING id, author_id, title, content, COALESCE(image_path, ''), created_at, updated_at`,
			authorID, strings.TrimSpace(req.Title), req.Content, req.ImagePath,
		).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.ImagePath,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create post")
			log.Println("CreatePost error:", err)
			return
		}

		err = db.QueryRow(`SELECT id, username, name FROM users WHERE id = $1`, authorID).
			Scan(&p.Author.ID, &p.Author.Username, &p.Author.Name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create post")
			log.Println("CreatePost author error:", err)
			return
		}

		respondJSON(w, http.StatusCreated, p)
	}
}

// UpdatePost applies a partial update to a post the authenticated user owns
// and bumps updated_at. Existence is checked before ownership so a missing
// post is 404, not 403.
func UpdatePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id")
			return
		}

		var ownerID int
		err = db.QueryRow(`SELECT author_id FROM posts WHERE id = $1`, id).Scan(&ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "Post not found")
			} else {
				respondError(w, http.StatusInternalServerError, "Database query failed")
				log.Println("UpdatePost error:", err)
			}
			return
		}

		if !policy.Permit(actorID, ownerID) {
			respondError(w, http.StatusForbidden, "You can only edit your own posts")
			return
		}

		var req struct {
			Title     string `json:"title"`
			Content   string `json:"content"`
			ImagePath string `json:"image_path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		setClauses := []string{}
		args := []interface{}{}
		i := 1

		if strings.TrimSpace(req.Title) != "" {
			setClauses = append(setClauses, "title = $"+strconv.Itoa(i))
			args = append(args, strings.TrimSpace(req.Title))
			i++
		}
		if req.Content != "" {
			setClauses = append(setClauses, "content = $"+strconv.Itoa(i))
			args = append(args, req.Content)
			i++
		}
		if req.ImagePath != "" {
			setClauses = append(setClauses, "image_path = $"+strconv.Itoa(i))
			args = append(args, req.ImagePath)
			i++
		}

		if len(setClauses) == 0 {
			respondError(w, http.StatusBadRequest, "No fields provided for update")
			return
		}

		setClauses = append(setClauses, "updated_at = NOW()")
		sqlStr := "UPDATE posts SET " + strings.Join(setClauses, ", ") +
			" WHERE id = $" + strconv.Itoa(i)
		args = append(args, id)

		if _, err := db.ExecContext(r.Context(), sqlStr, args...); err != nil {
			respondError(w, http.StatusInternalServerError, "Database update failed")
			log.Println("UpdatePost error:", err)
			return
		}

		var p models.Post
		err = db.QueryRow(`
			SELECT id, author_id, title, content, COALESCE(image_path, ''), created_at, updated_at
			FROM posts WHERE id = $1`, id).
			Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.ImagePath,
				&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch updated post")
			log.Println("UpdatePost fetch error:", err)
			return
		}

		respondJSON(w, http.StatusOK, p)
	}
}

// DeletePost removes a post the authenticated user owns. Comments go with
// the post, inside the same transaction.
func DeletePost(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id")
			return
		}

		var ownerID int
		err = db.QueryRow(`SELECT author_id FROM posts WHERE id = $1`, id).Scan(&ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "Post not found")
			} else {
				respondError(w, http.StatusInternalServerError, "Database query failed")
				log.Println("DeletePost error:", err)
			}
			return
		}

		if !policy.Permit(actorID, ownerID) {
			respondError(w, http.StatusForbidden, "You can only delete your own posts")
			return
		}

		tx, err := db.BeginTx(r.Context(), nil)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Transaction error")
			log.Println("DeletePost tx error:", err)
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM comments WHERE post_id = $1`, id); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete post")
			log.Println("DeletePost comments error:", err)
			return
		}

		if _, err := tx.Exec(`DELETE FROM posts WHERE id = $1`, id); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete post")
			log.Println("DeletePost error:", err)
			return
		}

		if err := tx.Commit(); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to commit transaction")
			log.Println("DeletePost commit error:", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Post deleted successfully",
		})
	}
}
