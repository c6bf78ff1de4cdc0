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
	"blogspace.com/blogspace-server/relations"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

func GetUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.Query(`
			SELECT id, username, name, created_at
			FROM users
			ORDER BY username`)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database query failed")
			log.Println("GetUsers error:", err)
			return
		}
		defer rows.Close()

		var users []models.User
		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt); err != nil {
				respondError(w, http.StatusInternalServerError, "Error scanning user data")
				log.Println("GetUsers scan error:", err)
				return
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			respondError(w, http.StatusInternalServerError, "Error iterating rows")
			log.Println("GetUsers rows error:", err)
			return
		}

		respondJSON(w, http.StatusOK, users)
	}
}

// GetUserByID returns the public profile with follower and following counts
// computed from the edge table at read time.
func GetUserByID(db *sql.DB, rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		var profile models.UserWithStats
		err = db.QueryRow(`
			SELECT id, username, name, created_at FROM users WHERE id = $1`, id).
			Scan(&profile.ID, &profile.Username, &profile.Name, &profile.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "User not found")
			} else {
				respondError(w, http.StatusInternalServerError, "Database query failed")
				log.Println("GetUserByID error:", err)
			}
			return
		}

		stats, err := rel.Stats(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch follow stats")
			log.Println("GetUserByID stats error:", err)
			return
		}
		profile.FollowersCount = stats.FollowersCount
		profile.FollowingCount = stats.FollowingCount

		err = db.QueryRow(`SELECT COUNT(*) FROM posts WHERE author_id = $1`, id).
			Scan(&profile.PostsCount)
		if err != nil {
			log.Println("GetUserByID post count error:", err)
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

// UpdateUser applies a partial profile update. Only the account owner may
// edit it.
func UpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		id, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		var exists bool
		err = db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database query failed")
			log.Println("UpdateUser error:", err)
			return
		}
		if !exists {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}

		if !policy.Permit(actorID, id) {
			respondError(w, http.StatusForbidden, "You can only edit your own profile")
			return
		}

		var req struct {
			Username string `json:"username"`
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		setClauses := []string{}
		args := []interface{}{}
		i := 1

		if req.Username != "" {
			if len(req.Username) < 3 || len(req.Username) > 30 {
				respondError(w, http.StatusBadRequest, "Username must be between 3 and 30 characters")
				return
			}
			setClauses = append(setClauses, "username = $"+strconv.Itoa(i))
			args = append(args, req.Username)
			i++
		}
		if req.Name != "" {
			setClauses = append(setClauses, "name = $"+strconv.Itoa(i))
			args = append(args, req.Name)
			i++
		}
		if req.Password != "" {
			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to update profile")
				return
			}
			setClauses = append(setClauses, "password_hash = $"+strconv.Itoa(i))
			args = append(args, string(hashedPassword))
			i++
		}

		if len(setClauses) == 0 {
			respondError(w, http.StatusBadRequest, "No fields provided for update")
			return
		}

		sqlStr := "UPDATE users SET " + strings.Join(setClauses, ", ") +
			" WHERE id = $" + strconv.Itoa(i)
		args = append(args, id)

		if _, err := db.Exec(sqlStr, args...); err != nil {
			respondError(w, http.StatusInternalServerError, "Database update failed")
			log.Println("UpdateUser error:", err)
			return
		}

		var updated models.User
		err = db.QueryRow(`
			SELECT id, username, name, created_at FROM users WHERE id = $1`, id).
			Scan(&updated.ID, &updated.Username, &updated.Name, &updated.CreatedAt)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch updated user")
			log.Println("UpdateUser fetch error:", err)
			return
		}

		respondJSON(w, http.StatusOK, updated)
	}
}

func SearchUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			respondError(w, http.StatusBadRequest, "Search query 'q' parameter is required")
			return
		}

		if len(query) > 50 {
			query = query[:50]
		}

		rows, err := db.Query(`
			SELECT id, username, name, created_at
			FROM users
			WHERE username ILIKE $1 OR name ILIKE $1
			ORDER BY
				CASE WHEN username ILIKE $2 THEN 0 ELSE 1 END,
				username
			LIMIT 20`,
			"%"+query+"%", query+"%")
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database search failed")
			log.Println("SearchUsers error:", err)
			return
		}
		defer rows.Close()

		var users []models.User
		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt); err != nil {
				respondError(w, http.StatusInternalServerError, "Error scanning search results")
				log.Println("SearchUsers scan error:", err)
				return
			}
			users = append(users, u)
		}

		respondJSON(w, http.StatusOK, users)
	}
}

// RegisterFCMToken stores a device token for push notifications. The token
// belongs to the authenticated user.
func RegisterFCMToken(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			respondError(w, http.StatusBadRequest, "FCM token is required")
			return
		}

		_, err := db.Exec(`
			INSERT INTO fcm_tokens (user_id, token, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (user_id, token)
			DO UPDATE SET updated_at = NOW()`,
			userID, req.Token)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to register FCM token")
			log.Println("RegisterFCMToken error:", err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"message": "FCM token registered successfully",
		})
	}
}
