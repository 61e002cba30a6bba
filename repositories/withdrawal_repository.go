// repositories/withdrawal_repository.go
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

type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Client) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: config.GetCollection(db, "withdrawals"),
	}
}

func (r *WithdrawalRepository) Insert(ctx context.Context, withdrawal *models.Withdrawal) error {
	res, err := r.collection.InsertOne(ctx, withdrawal)
	if err != nil {
		return err
	}
	withdrawal.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, withdrawalID primitive.ObjectID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": withdrawalID}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

// nonTerminalStatuses is the CAS precondition shared by Complete and Reject:
// the update only matches while the withdrawal is still pending or opened.
var nonTerminalStatuses = bson.M{"$in": bson.A{models.WithdrawalStatusPending, models.WithdrawalStatusInProgress}}

// Complete performs the compare-and-swap terminal transition to "completed".
// Whichever concurrent approve/reject matches the status filter first wins;
// everyone else gets ErrAlreadyProcessed.
func (r *WithdrawalRepository) Complete(ctx context.Context, withdrawalID, staffID primitive.ObjectID, tx models.HiveTransaction) (*models.Withdrawal, error) {
	now := time.Now()
	filter := bson.M{"_id": withdrawalID, "status": nonTerminalStatuses}
	update := bson.M{
		"$set": bson.M{
			"status":          models.WithdrawalStatusCompleted,
			"processedBy":     staffID,
			"processedAt":     now,
			"hiveTransaction": tx,
			"updatedAt":       now,
		},
		"$unset": bson.M{"lockedBy": "", "lockExpiry": ""},
	}
	return r.casUpdate(ctx, withdrawalID, filter, update)
}

// Reject performs the compare-and-swap terminal transition to "rejected".
func (r *WithdrawalRepository) Reject(ctx context.Context, withdrawalID, staffID primitive.ObjectID, reason string) (*models.Withdrawal, error) {
	now := time.Now()
	filter := bson.M{"_id": withdrawalID, "status": nonTerminalStatuses}
	update := bson.M{
		"$set": bson.M{
			"status":          models.WithdrawalStatusRejected,
			"processedBy":     staffID,
			"processedAt":     now,
			"rejectionReason": reason,
			"updatedAt":       now,
		},
		"$unset": bson.M{"lockedBy": "", "lockExpiry": ""},
	}
	return r.casUpdate(ctx, withdrawalID, filter, update)
}

// MarkInProgress is the advisory "someone opened it" transition. Only moves
// pending forward, never touches terminal rows.
func (r *WithdrawalRepository) MarkInProgress(ctx context.Context, withdrawalID, staffID primitive.ObjectID) error {
	filter := bson.M{"_id": withdrawalID, "status": models.WithdrawalStatusPending}
	update := bson.M{"$set": bson.M{
		"status":     models.WithdrawalStatusInProgress,
		"assignedTo": staffID,
		"updatedAt":  time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *WithdrawalRepository) casUpdate(ctx context.Context, withdrawalID primitive.ObjectID, filter, update bson.M) (*models.Withdrawal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var withdrawal models.Withdrawal
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&withdrawal)
	if err == nil {
		return &withdrawal, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	// CAS missed: either the withdrawal does not exist or another actor
	// already finished it.
	if _, findErr := r.FindByID(ctx, withdrawalID); findErr != nil {
		return nil, findErr
	}
	return nil, models.ErrAlreadyProcessed
}

// SetLockFields mirrors an acquired advisory lock onto the document so
// listings can show who is holding it. Skips terminal rows.
func (r *WithdrawalRepository) SetLockFields(ctx context.Context, withdrawalID, staffID primitive.ObjectID, expiry time.Time) error {
	filter := bson.M{"_id": withdrawalID, "status": nonTerminalStatuses}
	update := bson.M{"$set": bson.M{"lockedBy": staffID, "lockExpiry": expiry, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// ClearLockFields removes the advisory lock mirror.
func (r *WithdrawalRepository) ClearLockFields(ctx context.Context, withdrawalID primitive.ObjectID) error {
	update := bson.M{
		"$unset": bson.M{"lockedBy": "", "lockExpiry": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": withdrawalID}, update)
	return err
}

// AddNote appends a staff note.
func (r *WithdrawalRepository) AddNote(ctx context.Context, withdrawalID primitive.ObjectID, note models.WithdrawalNote) error {
	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": withdrawalID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrWithdrawalNotFound
	}
	return nil
}

// List filters withdrawals by status and assignee, most recent first.
func (r *WithdrawalRepository) List(ctx context.Context, status string, assignedTo *primitive.ObjectID, userID *primitive.ObjectID) ([]models.Withdrawal, error) {
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

	withdrawals := []models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// CountOpenAssigned counts non-terminal withdrawals assigned to a staff
// member, used by the load-based assignment policy.
func (r *WithdrawalRepository) CountOpenAssigned(ctx context.Context, staffID primitive.ObjectID) (int64, error) {
	filter := bson.M{"assignedTo": staffID, "status": nonTerminalStatuses}
	return r.collection.CountDocuments(ctx, filter)
}

// FindOpenAssigned returns the ids of non-terminal withdrawals assigned to a
// staff member, for reassignment when they go offline.
func (r *WithdrawalRepository) FindOpenAssigned(ctx context.Context, staffID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{"assignedTo": staffID, "status": nonTerminalStatuses}
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

// Reassign moves one withdrawal to a new assignee (or clears the assignment
// when newAssignee is nil), only while it is non-terminal.
func (r *WithdrawalRepository) Reassign(ctx context.Context, withdrawalID primitive.ObjectID, newAssignee *primitive.ObjectID) error {
	filter := bson.M{"_id": withdrawalID, "status": nonTerminalStatuses}
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
