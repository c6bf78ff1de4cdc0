package services

import (
	"context"
	"database/sql"
	"log"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	messagingClient *messaging.Client
	once            sync.Once
	initError       error
)

// InitFirebase sets up the FCM messaging client. Safe to skip in
// environments without credentials; sends become no-ops that log.
func InitFirebase(credentialsPath string) error {
	once.Do(func() {
		ctx := context.Background()

		opt := option.WithCredentialsFile(credentialsPath)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			initError = err
			log.Printf("[FCM] Failed to init Firebase app: %v", err)
			return
		}

		messagingClient, err = app.Messaging(ctx)
		if err != nil {
			initError = err
			log.Printf("[FCM] Failed to get messaging client: %v", err)
			return
		}

		log.Println("[FCM] Firebase Messaging client initialized")
	})

	return initError
}

// FCMTokensForUser returns the registered device tokens for a user.
func FCMTokensForUser(db *sql.DB, userID int) ([]string, error) {
	rows, err := db.Query(`
		SELECT token FROM fcm_tokens
		WHERE user_id = $1 AND token IS NOT NULL AND token != ''`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// SendMultipleNotifications multicasts a push notification. Tokens FCM
// reports as unregistered are removed from the store.
func SendMultipleNotifications(
	db *sql.DB,
	tokens []string,
	title, body string,
	data map[string]string,
) (int, int, error) {

	if messagingClient == nil {
		log.Printf("[FCM] Messaging client not initialized, skipping %d notifications", len(tokens))
		return 0, 0, initError
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:   data,
		Tokens: tokens,
	}

	response, err := messagingClient.SendEachForMulticast(context.Background(), message)
	if err != nil {
		log.Printf("[FCM] Multicast send failed: %v", err)
		return 0, 0, err
	}

	for i, resp := range response.Responses {
		if resp.Success {
			continue
		}

		token := tokens[i]
		log.Printf("[FCM] token=%s error=%v", token, resp.Error)

		if messaging.IsUnregistered(resp.Error) {
			if _, err := db.Exec(`DELETE FROM fcm_tokens WHERE token = $1`, token); err != nil {
				log.Printf("[FCM] Failed to delete token %s: %v", token, err)
			}
		}
	}

	return response.SuccessCount, response.FailureCount, nil
}
