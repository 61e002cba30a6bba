// repositories/availability_repository.go
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

type AvailabilityRepository struct {
	collection *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Client) *AvailabilityRepository {
	return &AvailabilityRepository{
		collection: config.GetCollection(db, "staff_availability"),
	}
}

// FindByUser returns the availability row for a staff member, creating a
// default offline row on first access.
func (r *AvailabilityRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.StaffAvailability, error) {
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":        userID,
			"isAvailable":   false,
			"lockedByAdmin": false,
			"taskStats":     models.TaskStats{},
			"updatedAt":     time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var availability models.StaffAvailability
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&availability); err != nil {
		return nil, err
	}
	return &availability, nil
}

// Save writes the availability flag and, when adminLock is non-nil, the
// admin lock flag in the same update.
func (r *AvailabilityRepository) Save(ctx context.Context, userID primitive.ObjectID, isAvailable bool, adminLock *bool) (*models.StaffAvailability, error) {
	set := bson.M{"isAvailable": isAvailable, "updatedAt": time.Now()}
	if adminLock != nil {
		set["lockedByAdmin"] = *adminLock
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var availability models.StaffAvailability
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, bson.M{"$set": set}, opts).Decode(&availability)
	if err != nil {
		return nil, err
	}
	return &availability, nil
}

// ListAvailable returns the user ids of staff currently marked available.
func (r *AvailabilityRepository) ListAvailable(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isAvailable": true}, options.Find().SetProjection(bson.M{"userId": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			UserID primitive.ObjectID `bson:"userId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.UserID)
	}
	return ids, cursor.Err()
}

// ListAll returns every availability row, for the admin roster view.
func (r *AvailabilityRepository) ListAll(ctx context.Context) ([]models.StaffAvailability, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []models.StaffAvailability{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RecordWithdrawalHandled bumps the staff member's withdrawal counters.
func (r *AvailabilityRepository) RecordWithdrawalHandled(ctx context.Context, staffID primitive.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{
			"taskStats.withdrawalsHandled": 1,
			"taskStats.withdrawalsValue":   amount,
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": staffID}, update, options.Update().SetUpsert(true))
	return err
}

// RecordTicketHandled bumps the staff member's ticket counter.
func (r *AvailabilityRepository) RecordTicketHandled(ctx context.Context, staffID primitive.ObjectID) error {
	update := bson.M{
		"$inc": bson.M{"taskStats.ticketsHandled": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": staffID}, update, options.Update().SetUpsert(true))
	return err
}

// FindAvailableUnlocked returns availability rows among the given users that
// are online and not admin-locked. The inactivity sweeper feeds it staff ids
// with stale heartbeats; the actual flip goes through the availability
// service so reassignment runs.
func (r *AvailabilityRepository) FindAvailableUnlocked(ctx context.Context, userIDs []primitive.ObjectID) ([]models.StaffAvailability, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"isAvailable":   true,
		"lockedByAdmin": false,
		"userId":        bson.M{"$in": userIDs},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rows := []models.StaffAvailability{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
