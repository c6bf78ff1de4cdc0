package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"blogspace.com/blogspace-server/models"
	"blogspace.com/blogspace-server/services"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

type credentialsRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Register creates an account and hands back a token so the client is logged
// in immediately.
func Register(db *sql.DB, tokens *services.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Username == "" || req.Name == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Please provide username, name, and password")
			return
		}
		if len(req.Username) < 3 || len(req.Username) > 30 {
			respondError(w, http.StatusBadRequest, "Username must be between 3 and 30 characters")
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to register user")
			return
		}

		var u models.User
		err = db.QueryRow(`
			INSERT INTO users (username, name, password_hash, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, username, name, created_at`,
			req.Username, req.Name, string(hashedPassword),
		).Scan(&u.ID, &u.Username, &u.Name, &u.CreatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				respondError(w, http.StatusConflict, "Username already exists")
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to register user")
			log.Println("Register error:", err)
			return
		}

		token, err := tokens.GenerateToken(u.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to register user")
			log.Println("Register token error:", err)
			return
		}

		respondJSON(w, http.StatusCreated, authResponse{
			Token:    token,
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
		})
	}
}

// Login verifies the credential and mints a fresh token.
func Login(db *sql.DB, tokens *services.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Username == "" || req.Password == "" {
			respondError(w, http.StatusBadRequest, "Username and password are required")
			return
		}

		var u models.User
		err := db.QueryRow(`
			SELECT id, username, name, password_hash, created_at
			FROM users WHERE username = $1`,
			req.Username,
		).Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.CreatedAt)
		if err != nil {
			if err == sql.ErrNoRows {
				// Same response as a bad password so usernames can't be probed.
				respondError(w, http.StatusUnauthorized, "Invalid username or password")
			} else {
				respondError(w, http.StatusInternalServerError, "Failed to log in")
				log.Println("Login error:", err)
			}
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			respondError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		token, err := tokens.GenerateToken(u.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to log in")
			log.Println("Login token error:", err)
			return
		}

		respondJSON(w, http.StatusOK, authResponse{
			Token:    token,
			ID:       u.ID,
			Username: u.Username,
			Name:     u.Name,
		})
	}
}
