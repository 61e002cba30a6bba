// controllers/notification_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/repositories"
)

// NotificationController serves the in-app notification feed
type NotificationController struct {
	db    *mongo.Client
	users *repositories.UserRepository
}

// NewNotificationController creates a new notification controller
func NewNotificationController(db *mongo.Client, users *repositories.UserRepository) *NotificationController {
	return &NotificationController{db: db, users: users}
}

// ListNotifications returns the caller's notifications, newest first
func (c *NotificationController) ListNotifications(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	collection := config.GetCollection(c.db, "notifications")
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(100)
	cursor, err := collection.Find(context.Background(), bson.M{"userId": user.ID}, opts)
	if err != nil {
		log.Printf("Failed to list notifications: %v", err)
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notifications",
		})
	}
	defer cursor.Close(context.Background())

	notifications := []models.Notification{}
	if err := cursor.All(context.Background(), &notifications); err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve notifications",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data:    notifications,
	})
}

// MarkRead marks a single notification as read
func (c *NotificationController) MarkRead(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	notificationID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	collection := config.GetCollection(c.db, "notifications")
	result, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": notificationID, "userId": user.ID},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notification",
		})
	}
	if result.MatchedCount == 0 {
		return ctx.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Notification not found",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
	})
}

// MarkAllRead marks every unread notification for the caller as read
func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	collection := config.GetCollection(c.db, "notifications")
	_, err = collection.UpdateMany(context.Background(),
		bson.M{"userId": user.ID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update notifications",
		})
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "All notifications marked as read",
	})
}
