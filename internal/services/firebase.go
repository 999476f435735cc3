package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

func payloadDataStrings(payload NotificationPayload) map[string]string {
	// FCM requires string values in the data map
	dataStrings := make(map[string]string)
	for key, value := range payload.Data {
		switch v := value.(type) {
		case string:
			dataStrings[key] = v
		case int, int64, uint, float64, bool:
			dataStrings[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			dataStrings[key] = string(jsonData)
		}
	}
	return dataStrings
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  payloadDataStrings(payload),
		Token: token,
	}

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}

	log.Printf("Successfully sent notification, response: %s", response)
	return nil
}

// SendNotificationToUser sends a notification to every registered device of a
// user. Missing Firebase configuration or a user without tokens is not an
// error.
func SendNotificationToUser(ctx context.Context, db *gorm.DB, userID uint, payload NotificationPayload) error {
	if MessagingClient == nil {
		return nil
	}

	var tokens []models.DeviceToken
	if err := db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:   payloadDataStrings(payload),
		Tokens: tokenStrings,
	}

	response, err := MessagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %v", err)
	}

	if response.FailureCount > 0 {
		for idx, resp := range response.Responses {
			if !resp.Success {
				log.Printf("Failed to send to token %s: %v", tokenStrings[idx], resp.Error)
			}
		}
	}

	return nil
}

// SendInvoiceReadyNotification tells a member their flight invoice was created
func SendInvoiceReadyNotification(ctx context.Context, db *gorm.DB, userID, invoiceID uint, reference string, total float64) {
	payload := NotificationPayload{
		Title: "Invoice ready",
		Body:  fmt.Sprintf("%s: $%.2f", reference, total),
		Data: map[string]interface{}{
			"type":      "invoice_ready",
			"invoiceId": invoiceID,
		},
	}

	if err := SendNotificationToUser(ctx, db, userID, payload); err != nil {
		log.Printf("Failed to send invoice notification to user %d: %v", userID, err)
	}
}

// SendPaymentReceivedNotification confirms a completed payment to the member
func SendPaymentReceivedNotification(ctx context.Context, db *gorm.DB, userID, paymentID uint, amount float64) {
	payload := NotificationPayload{
		Title: "Payment received",
		Body:  fmt.Sprintf("We received your payment of $%.2f", amount),
		Data: map[string]interface{}{
			"type":      "payment_received",
			"paymentId": paymentID,
		},
	}

	if err := SendNotificationToUser(ctx, db, userID, payload); err != nil {
		log.Printf("Failed to send payment notification to user %d: %v", userID, err)
	}
}
