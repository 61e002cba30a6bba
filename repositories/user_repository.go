// repositories/user_repository.go
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/models"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// DebitAvailableBalance atomically checks and decrements the available
// balance. The $gte filter makes the balance check and the debit one
// conditional write, so two concurrent withdrawals cannot jointly overdraw.
func (r *UserRepository) DebitAvailableBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	filter := bson.M{
		"_id":              userID,
		"availableBalance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"availableBalance": -amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing user from an overdraw.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": userID})
		if err != nil {
			return err
		}
		if count == 0 {
			return models.ErrUserNotFound
		}
		return models.ErrInsufficientBalance
	}
	return nil
}

// CreditAvailableBalance adds funds back, used to roll back a debit when the
// withdrawal insert fails and to refund rejected withdrawals.
func (r *UserRepository) CreditAvailableBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"availableBalance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// CreditPendingEarnings accrues a seller's earnings when an order is created.
func (r *UserRepository) CreditPendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	update := bson.M{
		"$inc": bson.M{"pendingEarnings": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// ReleasePendingEarnings moves an amount from pending earnings to the
// available balance. Conditional on pendingEarnings covering the amount so a
// double release cannot mint funds.
func (r *UserRepository) ReleasePendingEarnings(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	filter := bson.M{
		"_id":             userID,
		"pendingEarnings": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"pendingEarnings": -amount, "availableBalance": amount},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrInsufficientBalance
	}
	return nil
}

// TouchActivity stamps the user's last activity time.
func (r *UserRepository) TouchActivity(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{
		"$set": bson.M{"lastActivityAt": time.Now(), "updatedAt": time.Now()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	return err
}

// FindStaff returns staff/admin users holding the given permission. Admins
// implicitly hold every permission.
func (r *UserRepository) FindStaff(ctx context.Context, permission string) ([]models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"userType": models.UserTypeAdmin},
		{"userType": models.UserTypeStaff, "permissions": permission},
	}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindInactiveStaffIDs returns ids of staff whose last activity predates the
// cutoff, for the availability sweeper.
func (r *UserRepository) FindInactiveStaffIDs(ctx context.Context, cutoff time.Time) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"userType":       bson.M{"$in": bson.A{models.UserTypeStaff, models.UserTypeAdmin}},
		"lastActivityAt": bson.M{"$lt": cutoff},
	}
	cursor, err := r.collection.Find(ctx, filter)
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
