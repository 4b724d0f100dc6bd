package mockservice

import (
	"context"

	"github.com/stretchr/testify/mock"

	"apms-analytics-service/internal/model"
	"apms-analytics-service/internal/service"
)

type Service struct {
	mock.Mock
}

// Interface compliance check
var _ service.AnalyticsService = &Service{}

func (m *Service) Query(ctx context.Context, req model.AnalyticsRequest) (model.QueryResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(model.QueryResult)
	return res, args.Error(1)
}

func (m *Service) DailyCounts(ctx context.Context) ([]model.DayCount, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.DayCount)
	return items, args.Error(1)
}

func (m *Service) StopReasonPareto(ctx context.Context, limit int) ([]model.ReasonCount, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]model.ReasonCount)
	return items, args.Error(1)
}

func (m *Service) DowntimeReasons(ctx context.Context, filter model.DowntimeFilter) ([]model.DowntimeItem, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]model.DowntimeItem)
	return items, args.Error(1)
}

func (m *Service) Refs(ctx context.Context) (model.RefsResponse, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(model.RefsResponse)
	return res, args.Error(1)
}
