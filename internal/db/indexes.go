package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the indexes the aggregation paths lean on. This keeps
// the service self-contained without an external migration step; CreateMany
// is a no-op for indexes that already exist.
func EnsureIndexes(ctx context.Context, conn *Connection) error {
	indexes := map[string][]mongo.IndexModel{
		"timerlogs": {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "endedAt", Value: 1}}},
			{Keys: bson.D{{Key: "stopReason", Value: 1}}},
			{Keys: bson.D{{Key: "locationId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		"timerloghistories": {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "endedAt", Value: 1}}},
		},
		"controllertimers": {
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "endedAt", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := conn.Database().Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}
