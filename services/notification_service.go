package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/utils"
	"github.com/vyldo/vyldo_backend/websocket"
)

// NotificationService implements Notifier: it stores the in-app record,
// pushes over the websocket hub, and emails the recipient for withdrawal
// terminal transitions. Delivery is best effort and fully asynchronous so a
// slow SMTP relay never sits on a request path.
type NotificationService struct {
	db  *mongo.Client
	hub *websocket.Hub
}

func NewNotificationService(db *mongo.Client, hub *websocket.Hub) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

func (s *NotificationService) Notify(userID primitive.ObjectID, notifType, title, message string, data interface{}) {
	go func() {
		if err := utils.SaveNotification(s.db, userID, title, message, notifType, data); err != nil {
			log.Printf("Failed to save notification for %s: %v", userID.Hex(), err)
		}

		if s.hub != nil {
			// Not connected is the normal case for offline users.
			_ = s.hub.SendToUser(userID, websocket.Notification{
				Type:    notifType,
				Title:   title,
				Message: message,
				Data:    data,
			})
		}

		if notifType == models.NotificationTypeWithdrawalProcessed {
			s.emailUser(userID, title, message)
		}
	}()
}

func (s *NotificationService) emailUser(userID primitive.ObjectID, subject, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := config.GetCollection(s.db, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		log.Printf("Failed to load user %s for email notification: %v", userID.Hex(), err)
		return
	}

	if err := utils.SendEmail(user.Email, subject, body+"\n\nThe Vyldo Team"); err != nil {
		log.Printf("Failed to email %s: %v", user.Email, err)
	}
}
