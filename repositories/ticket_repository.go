// repositories/ticket_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/models"
)

type TicketRepository struct {
	collection *mongo.Collection
}

func NewTicketRepository(db *mongo.Client) *TicketRepository {
	return &TicketRepository{
		collection: config.GetCollection(db, "tickets"),
	}
}

// openStatuses matches tickets still in flight.
var openStatuses = bson.M{"$in": bson.A{models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusWaitingReply}}

func (r *TicketRepository) Insert(ctx context.Context, ticket *models.SupportTicket) error {
	res, err := r.collection.InsertOne(ctx, ticket)
	if err != nil {
		return err
	}
	ticket.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, ticketID primitive.ObjectID) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := r.collection.FindOne(ctx, bson.M{"_id": ticketID}).Decode(&ticket)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) List(ctx context.Context, status string, assignedTo *primitive.ObjectID, userID *primitive.ObjectID) ([]models.SupportTicket, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if assignedTo != nil {
		filter["assignedTo"] = *assignedTo
	}
	if userID != nil {
		filter["userId"] = *userID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tickets := []models.SupportTicket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// AppendMessage adds a reply and moves the conversation state: staff replies
// put the ticket into waiting_reply, user replies reopen it to in_progress.
func (r *TicketRepository) AppendMessage(ctx context.Context, ticketID primitive.ObjectID, message models.TicketMessage) (*models.SupportTicket, error) {
	status := models.TicketStatusInProgress
	if message.IsStaff {
		status = models.TicketStatusWaitingReply
	}

	filter := bson.M{"_id": ticketID, "status": bson.M{"$ne": models.TicketStatusClosed}}
	update := bson.M{
		"$push": bson.M{"messages": message},
		"$set":  bson.M{"status": status, "updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ticket models.SupportTicket
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ticket)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := r.FindByID(ctx, ticketID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrTicketClosed
		}
		return nil, err
	}
	return &ticket, nil
}

// UpdateStatus transitions ticket status; solving stamps the resolver.
func (r *TicketRepository) UpdateStatus(ctx context.Context, ticketID primitive.ObjectID, status string, actorID primitive.ObjectID) (*models.SupportTicket, error) {
	now := time.Now()
	set := bson.M{"status": status, "updatedAt": now}
	if status == models.TicketStatusSolved {
		set["resolvedAt"] = now
		set["resolvedBy"] = actorID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ticket models.SupportTicket
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": ticketID}, bson.M{"$set": set}, opts).Decode(&ticket)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// Assign sets or clears the ticket assignee.
func (r *TicketRepository) Assign(ctx context.Context, ticketID primitive.ObjectID, assignee *primitive.ObjectID) error {
	var update bson.M
	if assignee != nil {
		update = bson.M{"$set": bson.M{"assignedTo": *assignee, "updatedAt": time.Now()}}
	} else {
		update = bson.M{
			"$unset": bson.M{"assignedTo": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		}
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": ticketID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrTicketNotFound
	}
	return nil
}

// CountOpenAssigned counts open tickets assigned to a staff member.
func (r *TicketRepository) CountOpenAssigned(ctx context.Context, staffID primitive.ObjectID) (int64, error) {
	filter := bson.M{"assignedTo": staffID, "status": openStatuses}
	return r.collection.CountDocuments(ctx, filter)
}

// FindOpenAssigned lists open tickets assigned to a staff member, for
// reassignment.
func (r *TicketRepository) FindOpenAssigned(ctx context.Context, staffID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"assignedTo": staffID, "status": openStatuses}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// Reassign moves one open ticket to a new assignee or clears it.
func (r *TicketRepository) Reassign(ctx context.Context, ticketID primitive.ObjectID, newAssignee *primitive.ObjectID) error {
	filter := bson.M{"_id": ticketID, "status": openStatuses}
	var update bson.M
	if newAssignee != nil {
		update = bson.M{"$set": bson.M{"assignedTo": *newAssignee, "updatedAt": time.Now()}}
	} else {
		update = bson.M{
			"$unset": bson.M{"assignedTo": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		}
	}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}
