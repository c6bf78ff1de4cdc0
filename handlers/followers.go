package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"blogspace.com/blogspace-server/middleware"
	"blogspace.com/blogspace-server/policy"
	"blogspace.com/blogspace-server/relations"
	"blogspace.com/blogspace-server/services"
	"github.com/gorilla/mux"
)

// FollowUser creates a follow edge from the authenticated user to the user
// in the path.
func FollowUser(db *sql.DB, rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		targetID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		switch err := rel.Follow(r.Context(), actorID, targetID); {
		case errors.Is(err, relations.ErrSelfFollow):
			respondError(w, http.StatusBadRequest, "Cannot follow yourself")
		case errors.Is(err, relations.ErrTargetNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, relations.ErrAlreadyFollowing):
			respondError(w, http.StatusConflict, "Already following this user")
		case err != nil:
			respondError(w, http.StatusInternalServerError, "Failed to follow user")
			log.Println("FollowUser error:", err)
		default:
			go notifyNewFollower(db, actorID, targetID)
			respondJSON(w, http.StatusCreated, map[string]string{
				"message": "Successfully followed user",
			})
		}
	}
}

// UnfollowUser removes the follow edge from the authenticated user to the
// user in the path.
func UnfollowUser(rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserID(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		targetID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		switch err := rel.Unfollow(r.Context(), actorID, targetID); {
		case errors.Is(err, relations.ErrSelfFollow):
			respondError(w, http.StatusBadRequest, "Cannot unfollow yourself")
		case errors.Is(err, relations.ErrTargetNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, relations.ErrNotFollowing):
			respondError(w, http.StatusNotFound, "Follow relationship not found")
		case err != nil:
			respondError(w, http.StatusInternalServerError, "Failed to unfollow user")
			log.Println("UnfollowUser error:", err)
		default:
			respondJSON(w, http.StatusOK, map[string]string{
				"message": "Successfully unfollowed user",
			})
		}
	}
}

func GetUserFollowers(rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		followers, err := rel.Followers(r.Context(), userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch followers")
			log.Println("GetUserFollowers error:", err)
			return
		}

		respondJSON(w, http.StatusOK, followers)
	}
}

func GetUserFollowing(rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		following, err := rel.Following(r.Context(), userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch following")
			log.Println("GetUserFollowing error:", err)
			return
		}

		respondJSON(w, http.StatusOK, following)
	}
}

func GetFollowStats(rel *relations.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := policy.ParseID(mux.Vars(r)["id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		stats, err := rel.Stats(r.Context(), userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch follow stats")
			log.Println("GetFollowStats error:", err)
			return
		}

		respondJSON(w, http.StatusOK, stats)
	}
}

func notifyNewFollower(db *sql.DB, followerID, followingID int) {
	var followerName string
	err := db.QueryRow(`SELECT name FROM users WHERE id = $1`, followerID).Scan(&followerName)
	if err != nil {
		log.Printf("Error getting follower name: %v", err)
		followerName = "Someone"
	}

	tokens, err := services.FCMTokensForUser(db, followingID)
	if err != nil {
		log.Printf("Error fetching FCM tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{
		"type":        "new_follower",
		"follower_id": strconv.Itoa(followerID),
	}
	services.SendMultipleNotifications(db, tokens, "New Follower",
		followerName+" started following you!", data)
}
