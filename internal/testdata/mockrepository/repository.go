package mockrepository

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"apms-analytics-service/internal/model"
	"apms-analytics-service/internal/repository"
)

type Repository struct {
	mock.Mock
}

// Interface compliance check
var _ repository.AnalyticsRepository = &Repository{}

func (m *Repository) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	args := m.Called(ctx, collection, pipeline)
	rows, _ := args.Get(0).([]bson.M)
	return rows, args.Error(1)
}

func (m *Repository) ListNameRefs(ctx context.Context, collection string) ([]model.NameRef, error) {
	args := m.Called(ctx, collection)
	refs, _ := args.Get(0).([]model.NameRef)
	return refs, args.Error(1)
}
