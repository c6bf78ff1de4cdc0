package main

import (
	"log"
	"net/http"
	"os"

	"blogspace.com/blogspace-server/database"
	"blogspace.com/blogspace-server/middleware"
	"blogspace.com/blogspace-server/routes"
	"blogspace.com/blogspace-server/services"
	"github.com/gorilla/mux"
)

func main() {
	db, err := database.ConnectDB()
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	defer db.Close()

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}
	tokens := services.NewTokenServiceFromEnv()

	if firebasePath := os.Getenv("FIREBASE_CREDENTIALS_PATH"); firebasePath != "" {
		if err := services.InitFirebase(firebasePath); err != nil {
			log.Printf("Firebase init failed, push notifications disabled: %v", err)
		}
	}

	router := mux.NewRouter()
	routes.CreateUserRoutes(db, tokens, router)
	routes.CreatePostRoutes(db, tokens, router)
	router.Use(middleware.RequestLogger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Println("Server is running on PORT:" + port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
