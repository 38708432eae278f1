package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"archie-shopify-session-layer/internal/domain"
	"archie-shopify-session-layer/internal/infrastructure/repository/entity"
	"archie-shopify-session-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoShopTokenRepository implements ShopTokenRepository using MongoDB
type MongoShopTokenRepository struct {
	collection *mongo.Collection
}

var _ ports.ShopTokenRepository = (*MongoShopTokenRepository)(nil)

// NewMongoShopTokenRepository creates a new MongoDB shop token repository
func NewMongoShopTokenRepository(db *mongo.Database) *MongoShopTokenRepository {
	return &MongoShopTokenRepository{
		collection: db.Collection("shop_tokens"),
	}
}

// EnsureIndexes creates the unique index on shop
func (r *MongoShopTokenRepository) EnsureIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "shop", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create shop index: %w", err)
	}
	return nil
}

// Save creates or replaces the token for a shop and stamps the times; a reinstall keeps the first install time
func (r *MongoShopTokenRepository) Save(ctx context.Context, record *domain.ShopTokenRecord) error {
	doc := entity.MongoShopTokenDocFromDomain(record)
	now := time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shop": record.Shop}
	update := bson.M{
		"$set": bson.M{
			"shop":      doc.Shop,
			"token":     doc.Token,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"installedAt": now,
		},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save shop token: %w", err)
	}

	return nil
}

// GetByShop retrieves the token record for a shop
func (r *MongoShopTokenRepository) GetByShop(ctx context.Context, shop string) (*domain.ShopTokenRecord, error) {
	var doc entity.MongoShopTokenDoc
	filter := bson.M{"shop": shop}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop token: %w", err)
	}

	return doc.ToDomain(), nil
}

// Delete removes the token record for a shop. Deleting an unknown shop is not an error.
func (r *MongoShopTokenRepository) Delete(ctx context.Context, shop string) error {
	filter := bson.M{"shop": shop}
	if _, err := r.collection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete shop token: %w", err)
	}
	return nil
}
