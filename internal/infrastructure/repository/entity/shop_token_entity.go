package entity

import (
	"time"

	"archie-shopify-session-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopTokenDoc represents an installed shop's access token in MongoDB
type MongoShopTokenDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Shop        string             `bson:"shop"`
	Token       string             `bson:"token"`
	InstalledAt time.Time          `bson:"installedAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopTokenDoc) ToDomain() *domain.ShopTokenRecord {
	return &domain.ShopTokenRecord{
		ID:          d.ID.Hex(),
		Shop:        d.Shop,
		Token:       d.Token,
		InstalledAt: d.InstalledAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoShopTokenDocFromDomain converts a domain entity to a MongoDB document
func MongoShopTokenDocFromDomain(record *domain.ShopTokenRecord) *MongoShopTokenDoc {
	doc := &MongoShopTokenDoc{
		Shop:        record.Shop,
		Token:       record.Token,
		InstalledAt: record.InstalledAt,
		UpdatedAt:   record.UpdatedAt,
	}

	if record.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(record.ID); err == nil {
			doc.ID = objID
		}
	}

	return doc
}
