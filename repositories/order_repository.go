// repositories/order_repository.go
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

type OrderRepository struct {
	orders *mongo.Collection
	memos  *mongo.Collection
}

func NewOrderRepository(db *mongo.Client) *OrderRepository {
	return &OrderRepository{
		orders: config.GetCollection(db, "orders"),
		memos:  config.GetCollection(db, "payment_memos"),
	}
}

// Insert persists a verified order. The unique indexes on paymentTxId and
// paymentMemo turn a replayed transaction or reused memo into a duplicate-key
// error in the same write that would have created the order, which is the
// at-most-once guarantee.
func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	res, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrDuplicatePayment
		}
		return err
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByTxID(ctx context.Context, txID string) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"paymentTxId": txID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	filter := bson.M{"$or": []bson.M{{"buyerId": userID}, {"sellerId": userID}}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkCompleted flips a paid order to completed. The status precondition
// makes a double release fail instead of crediting the seller twice.
func (r *OrderRepository) MarkCompleted(ctx context.Context, orderID, releasedBy primitive.ObjectID) (*models.Order, error) {
	now := time.Now()
	filter := bson.M{"_id": orderID, "status": models.OrderStatusPaid}
	update := bson.M{"$set": bson.M{
		"status":      models.OrderStatusCompleted,
		"completedAt": now,
		"releasedBy":  releasedBy,
		"updatedAt":   now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.orders.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := r.FindByID(ctx, orderID); findErr != nil {
				return nil, findErr
			}
			return nil, models.ErrOrderNotPaid
		}
		return nil, err
	}
	return &order, nil
}

// InsertMemo records a memo issuance event.
func (r *OrderRepository) InsertMemo(ctx context.Context, memo *models.PaymentMemo) error {
	res, err := r.memos.InsertOne(ctx, memo)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrMemoUnavailable
		}
		return err
	}
	memo.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindMemo looks up an issued memo for a buyer.
func (r *OrderRepository) FindMemo(ctx context.Context, memo string, buyerID primitive.ObjectID) (*models.PaymentMemo, error) {
	var issued models.PaymentMemo
	err := r.memos.FindOne(ctx, bson.M{"memo": memo, "buyerId": buyerID}).Decode(&issued)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrUnknownMemo
		}
		return nil, err
	}
	return &issued, nil
}

// ConsumeMemo stamps the memo once an order has been created against it.
// Best effort: the orders unique index is the authority on single use.
func (r *OrderRepository) ConsumeMemo(ctx context.Context, memo string) error {
	update := bson.M{"$set": bson.M{"consumedAt": time.Now()}}
	_, err := r.memos.UpdateOne(ctx, bson.M{"memo": memo, "consumedAt": nil}, update)
	return err
}
