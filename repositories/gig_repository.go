// repositories/gig_repository.go
package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vyldo/vyldo_backend/config"
	"github.com/vyldo/vyldo_backend/models"
)

type GigRepository struct {
	collection *mongo.Collection
}

func NewGigRepository(db *mongo.Client) *GigRepository {
	return &GigRepository{
		collection: config.GetCollection(db, "gigs"),
	}
}

func (r *GigRepository) Insert(ctx context.Context, gig *models.Gig) error {
	res, err := r.collection.InsertOne(ctx, gig)
	if err != nil {
		return err
	}
	gig.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *GigRepository) FindByID(ctx context.Context, gigID primitive.ObjectID) (*models.Gig, error) {
	var gig models.Gig
	err := r.collection.FindOne(ctx, bson.M{"_id": gigID, "status": bson.M{"$ne": "deleted"}}).Decode(&gig)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrGigNotFound
		}
		return nil, err
	}
	return &gig, nil
}

func (r *GigRepository) FindBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Gig, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sellerId": sellerID, "status": bson.M{"$ne": "deleted"}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	gigs := []models.Gig{}
	if err := cursor.All(ctx, &gigs); err != nil {
		return nil, err
	}
	return gigs, nil
}
