package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"apms-analytics-service/internal/config"
)

// Connection owns the MongoDB client lifecycle. It is constructed once at
// startup and injected where needed; the driver pools connections internally,
// so concurrent in-flight requests share it safely.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewConnection connects to MongoDB and verifies the server is reachable.
func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Connection{client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

// Database returns the handle queries run against.
func (c *Connection) Database() *mongo.Database {
	return c.db
}

// Close disconnects the underlying client.
func (c *Connection) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
