package routes

import (
	"database/sql"

	"blogspace.com/blogspace-server/handlers"
	"blogspace.com/blogspace-server/middleware"
	"blogspace.com/blogspace-server/services"
	"github.com/gorilla/mux"
)

func CreatePostRoutes(db *sql.DB, tokens *services.TokenService, router *mux.Router) *mux.Router {
	router.HandleFunc("/posts", handlers.GetPosts(db)).Methods("GET")
	router.HandleFunc("/posts/{id}", handlers.GetPostByID(db)).Methods("GET")
	router.HandleFunc("/create-post", middleware.RequireAuth(tokens, handlers.CreatePost(db))).Methods("POST")
	router.HandleFunc("/posts/{id}", middleware.RequireAuth(tokens, handlers.UpdatePost(db))).Methods("PUT", "PATCH")
	router.HandleFunc("/posts/{id}", middleware.RequireAuth(tokens, handlers.DeletePost(db))).Methods("DELETE")

	router.HandleFunc("/add-comment/{id}", middleware.RequireAuth(tokens, handlers.AddComment(db))).Methods("POST")
	router.HandleFunc("/comments/{id}", middleware.RequireAuth(tokens, handlers.DeleteComment(db))).Methods("DELETE")

	return router
}
