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
	"blogspace.com/blogspace-server/services"
	"github.com/gorilla/mux"
)

// AddComment attaches a comment by the authenticated user to the post in
// the path.
func AddComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		postID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid post id")
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			respondError(w, http.StatusBadRequest, "Comment content is required")
			return
		}

		var exists bool
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database query failed")
			log.Println("AddComment error:", err)
			return
		}
		if !exists {
			respondError(w, http.StatusNotFound, "Post not found")
			return
		}

		var c models.CommentWithUser
		err = db.QueryRowContext(r.Context(), `
			INSERT INTO comments (post_id, author_id, content, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, post_id, author_id, content, created_at`,
			postID, authorID, req.Content,
		).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create comment")
			log.Println("AddComment error:", err)
			return
		}

		err = db.QueryRow(`SELECT username, name FROM users WHERE id = $1`, authorID).
			Scan(&c.Username, &c.Name)
		if err != nil {
			log.Println("AddComment author error:", err)
		}

		go notifyPostOwnerOfComment(db, postID, authorID, c.Content)

		respondJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "Comment added successfully",
			"comment": c,
		})
	}
}

// DeleteComment removes a comment the authenticated user owns.
func DeleteComment(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid comment id")
			return
		}

		var ownerID int
		err = db.QueryRow(`SELECT author_id FROM comments WHERE id = $1`, id).Scan(&ownerID)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "Comment not found")
			} else {
				respondError(w, http.StatusInternalServerError, "Database query failed")
				log.Println("DeleteComment error:", err)
			}
			return
		}

		if !policy.Permit(actorID, ownerID) {
			respondError(w, http.StatusForbidden, "You can only delete your own comments")
			return
		}

		if _, err := db.ExecContext(r.Context(), `DELETE FROM comments WHERE id = $1`, id); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete comment")
			log.Println("DeleteComment error:", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Comment deleted successfully",
		})
	}
}

func notifyPostOwnerOfComment(db *sql.DB, postID, commenterID int, commentText string) {
	var postOwnerID int
	var postTitle string
	err := db.QueryRow(`SELECT author_id, title FROM posts WHERE id = $1`, postID).
		Scan(&postOwnerID, &postTitle)
	if err != nil {
		log.Printf("Error fetching post info for comment notification: %v", err)
		return
	}

	if postOwnerID == commenterID {
		return
	}

	var commenterName string
	err = db.QueryRow(`SELECT name FROM users WHERE id = $1`, commenterID).Scan(&commenterName)
	if err != nil {
		log.Printf("Error fetching commenter name: %v", err)
		commenterName = "Someone"
	}

	tokens, err := services.FCMTokensForUser(db, postOwnerID)
	if err != nil {
		log.Printf("Error fetching FCM tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	body := commentText
	if len(body) > 100 {
		body = body[:97] + "..."
	}

	data := map[string]string{
		"type":         "post_comment",
		"post_id":      strconv.Itoa(postID),
		"commenter_id": strconv.Itoa(commenterID),
	}
	services.SendMultipleNotifications(db, tokens,
		commenterName+" commented on your post", body, data)
}
