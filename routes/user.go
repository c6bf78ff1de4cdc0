package routes

import (
	"database/sql"
	"time"

	"blogspace.com/blogspace-server/handlers"
	"blogspace.com/blogspace-server/middleware"
	"blogspace.com/blogspace-server/relations"
	"blogspace.com/blogspace-server/services"
	"github.com/gorilla/mux"
)

func CreateUserRoutes(db *sql.DB, tokens *services.TokenService, router *mux.Router) *mux.Router {
	rel := relations.NewManager(db)
	loginLimiter := middleware.NewRateLimiter(time.Minute, 10)

	router.HandleFunc("/users/register", loginLimiter.Limit(handlers.Register(db, tokens))).Methods("POST")
	router.HandleFunc("/users/login", loginLimiter.Limit(handlers.Login(db, tokens))).Methods("POST")

	router.HandleFunc("/users/search", handlers.SearchUsers(db)).Methods("GET")
	router.HandleFunc("/users", handlers.GetUsers(db)).Methods("GET")

	router.HandleFunc("/users/follow/{id}", middleware.RequireAuth(tokens, handlers.FollowUser(db, rel))).Methods("POST")
	router.HandleFunc("/users/unfollow/{id}", middleware.RequireAuth(tokens, handlers.UnfollowUser(rel))).Methods("POST")
	router.HandleFunc("/users/fcm-token", middleware.RequireAuth(tokens, handlers.RegisterFCMToken(db))).Methods("POST")

	router.HandleFunc("/users/{id}/followers", handlers.GetUserFollowers(rel)).Methods("GET")
	router.HandleFunc("/users/{id}/following", handlers.GetUserFollowing(rel)).Methods("GET")
	router.HandleFunc("/users/{id}/follow-stats", handlers.GetFollowStats(rel)).Methods("GET")

	router.HandleFunc("/users/{id}", handlers.GetUserByID(db, rel)).Methods("GET")
	router.HandleFunc("/users/{id}", middleware.RequireAuth(tokens, handlers.UpdateUser(db))).Methods("PUT")

	return router
}
