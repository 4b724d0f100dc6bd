package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"apms-analytics-service/internal/model"
)

// AnalyticsRepository defines the read operations against the event store.
type AnalyticsRepository interface {
	// Aggregate executes an aggregation pipeline against a collection and
	// returns the raw result rows.
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error)

	// ListNameRefs returns id/name pairs from a reference collection, sorted
	// by name.
	ListNameRefs(ctx context.Context, collection string) ([]model.NameRef, error)
}

type analyticsRepository struct {
	db *mongo.Database
}

// NewAnalyticsRepository creates an AnalyticsRepository backed by MongoDB.
func NewAnalyticsRepository(db *mongo.Database) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	cur, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}

	var rows []bson.M
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return rows, nil
}

func (r *analyticsRepository) ListNameRefs(ctx context.Context, collection string) ([]model.NameRef, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "name", Value: 1}}).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cur, err := r.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s refs: %w", collection, err)
	}

	refs := make([]model.NameRef, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, toNameRef(d))
	}
	return refs, nil
}

func toNameRef(doc bson.M) model.NameRef {
	var ref model.NameRef

	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		ref.ID = id.Hex()
	case string:
		ref.ID = id
	default:
		ref.ID = fmt.Sprintf("%v", id)
	}

	if name, ok := doc["name"].(string); ok {
		ref.Name = name
	}
	return ref
}
