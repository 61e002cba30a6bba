// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types pushed over the websocket hub and stored in-app.
const (
	NotificationTypeWithdrawalAssigned  = "withdrawal_assigned"
	NotificationTypeWithdrawalProcessed = "withdrawal_processed"
	NotificationTypeTicketAssigned      = "ticket_assigned"
	NotificationTypeTicketReply         = "ticket_reply"
	NotificationTypeOrderCreated        = "order_created"
	NotificationTypeEarningsReleased    = "earnings_released"
	NotificationTypeAvailabilityChanged = "availability_changed"
)

// Notification model
type Notification struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Type      string             `json:"type" bson:"type"`
	Data      interface{}        `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool               `json:"isRead" bson:"isRead"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
