package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"apms-analytics-service/internal/model"
	"apms-analytics-service/internal/pipeline"
	mockrepository "apms-analytics-service/internal/testdata/mockrepository"
)

type AnalyticsServiceTestSuite struct {
	suite.Suite

	repo    *mockrepository.Repository
	service AnalyticsService
}

func TestAnalyticsServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.repo = &mockrepository.Repository{}
	s.service = NewAnalyticsService(s.repo)
}

func (s *AnalyticsServiceTestSuite) TearDownTest() {
	s.repo.AssertExpectations(s.T())
}

// expectAggregate wires the mock for the pipeline the given request compiles
// to, so tests assert the exact stages the store would receive.
func (s *AnalyticsServiceTestSuite) expectAggregate(req model.AnalyticsRequest, rows []bson.M, err error) {
	plan := pipeline.Compile(req)
	s.repo.On("Aggregate", mock.Anything, plan.Collection, plan.Stages).Return(rows, err).Once()
}

func (s *AnalyticsServiceTestSuite) TestQuery_MissingCollection() {
	_, err := s.service.Query(context.Background(), model.AnalyticsRequest{})

	s.Error(err)
	s.IsType(&ValidationError{}, err)
	s.repo.AssertNotCalled(s.T(), "Aggregate", mock.Anything, mock.Anything, mock.Anything)

	_, err = s.service.Query(context.Background(), model.AnalyticsRequest{Collection: "   "})
	s.IsType(&ValidationError{}, err)
}

func (s *AnalyticsServiceTestSuite) TestQuery_DailyCounts() {
	req := model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{TimeBucket: "day"},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
	}
	rows := []bson.M{
		{"_id": bson.M{"t": "2024-01-01"}, "n": int32(2)},
		{"_id": bson.M{"t": "2024-01-02"}, "n": int32(1)},
	}
	s.expectAggregate(req, rows, nil)

	res, err := s.service.Query(context.Background(), req)

	s.NoError(err)
	s.Equal([]string{"t", "n"}, res.Columns)
	s.Equal([][]any{
		{"2024-01-01", float64(2)},
		{"2024-01-02", float64(1)},
	}, res.Rows)
	s.Equal(rows, res.Raw)
}

func (s *AnalyticsServiceTestSuite) TestQuery_UniversalAggregationSingleRow() {
	req := model.AnalyticsRequest{
		Collection: "cycles",
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
	}
	s.expectAggregate(req, []bson.M{{"_id": nil, "n": int32(3)}}, nil)

	res, err := s.service.Query(context.Background(), req)

	s.NoError(err)
	s.Equal([]string{"n"}, res.Columns)
	s.Len(res.Rows, 1)
	s.Equal([]any{float64(3)}, res.Rows[0])
}

func (s *AnalyticsServiceTestSuite) TestQuery_EmptyResultIsSuccess() {
	req := model.AnalyticsRequest{
		Collection: "cycles",
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
	}
	s.expectAggregate(req, []bson.M{}, nil)

	res, err := s.service.Query(context.Background(), req)

	s.NoError(err)
	s.Empty(res.Rows)
	s.Equal([]string{"n"}, res.Columns)
}

func (s *AnalyticsServiceTestSuite) TestQuery_UnknownOpExcludedFromColumns() {
	req := model.AnalyticsRequest{
		Collection: "cycles",
		Metrics: []model.MetricSpec{
			{Op: "count", As: "n"},
			{Op: "median", Field: "cycle", As: "m50"},
		},
	}
	s.expectAggregate(req, []bson.M{{"_id": nil, "n": int32(5)}}, nil)

	res, err := s.service.Query(context.Background(), req)

	s.NoError(err)
	s.Equal([]string{"n"}, res.Columns, "dropped ops produce no column")
}

func (s *AnalyticsServiceTestSuite) TestQuery_RepositoryError() {
	req := model.AnalyticsRequest{Collection: "cycles"}
	s.expectAggregate(req, nil, errors.New("server selection timeout"))

	_, err := s.service.Query(context.Background(), req)

	s.Error(err)
	s.ErrorContains(err, "run analytics query")
	s.ErrorContains(err, "server selection timeout")
}

func (s *AnalyticsServiceTestSuite) TestDailyCounts() {
	s.expectAggregate(model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{TimeBucket: "day"},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
		Limit:      2000,
	}, []bson.M{
		{"_id": bson.M{"t": "2024-01-01"}, "n": int32(2)},
		{"_id": bson.M{"t": "2024-01-02"}, "n": int32(1)},
	}, nil)

	items, err := s.service.DailyCounts(context.Background())

	s.NoError(err)
	s.Equal([]model.DayCount{
		{Day: "2024-01-01", Count: 2},
		{Day: "2024-01-02", Count: 1},
	}, items)
}

func (s *AnalyticsServiceTestSuite) TestStopReasonPareto_DefaultLimitAndNullSkip() {
	s.expectAggregate(model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{By: []string{"stopReason"}},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
		Sort:       model.SortSpec{By: "n", Order: model.SortDesc},
		Limit:      20,
	}, []bson.M{
		{"_id": bson.M{"stopReason": "jam"}, "n": int32(4)},
		{"_id": bson.M{}, "n": int32(2)}, // unattributed, dropped from the chart
	}, nil)

	items, err := s.service.StopReasonPareto(context.Background(), 0)

	s.NoError(err)
	s.Equal([]model.ReasonCount{{StopReason: "jam", Count: 4}}, items)
}

func (s *AnalyticsServiceTestSuite) TestStopReasonPareto_ExplicitLimit() {
	s.expectAggregate(model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{By: []string{"stopReason"}},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
		Sort:       model.SortSpec{By: "n", Order: model.SortDesc},
		Limit:      5,
	}, []bson.M{}, nil)

	items, err := s.service.StopReasonPareto(context.Background(), 5)

	s.NoError(err)
	s.Empty(items)
}

func (s *AnalyticsServiceTestSuite) TestDowntimeReasons() {
	s.expectAggregate(model.AnalyticsRequest{
		Collection: "timerlogs",
		Filters: map[string]any{
			"locationId": "loc-1",
			"from":       "2024-01-01",
			"to":         "2024-01-31",
		},
		Group:   model.GroupSpec{By: []string{"stopReason"}},
		Metrics: []model.MetricSpec{{Op: "sum", Field: "durationSec", As: "totalDurationSec"}},
		Sort:    model.SortSpec{By: "totalDurationSec", Order: model.SortDesc},
	}, []bson.M{
		{"_id": bson.M{"stopReason": "maintenance"}, "totalDurationSec": 1800.0},
		{"_id": bson.M{}, "totalDurationSec": 90.5},
	}, nil)

	items, err := s.service.DowntimeReasons(context.Background(), model.DowntimeFilter{
		LocationID: "loc-1",
		From:       "2024-01-01",
		To:         "2024-01-31",
	})

	s.NoError(err)
	s.Equal([]model.DowntimeItem{
		{StopReason: "maintenance", TotalDurationSec: 1800},
		{StopReason: "Unknown", TotalDurationSec: 90.5},
	}, items)
}

func (s *AnalyticsServiceTestSuite) TestDowntimeReasons_NoFilters() {
	s.expectAggregate(model.AnalyticsRequest{
		Collection: "timerlogs",
		Filters:    map[string]any{},
		Group:      model.GroupSpec{By: []string{"stopReason"}},
		Metrics:    []model.MetricSpec{{Op: "sum", Field: "durationSec", As: "totalDurationSec"}},
		Sort:       model.SortSpec{By: "totalDurationSec", Order: model.SortDesc},
	}, []bson.M{}, nil)

	items, err := s.service.DowntimeReasons(context.Background(), model.DowntimeFilter{})

	s.NoError(err)
	s.Empty(items)
}

func (s *AnalyticsServiceTestSuite) TestRefs_Success() {
	locs := []model.NameRef{{ID: "1", Name: "Plant A"}}
	mcs := []model.NameRef{{ID: "2", Name: "Press"}}
	s.repo.On("ListNameRefs", mock.Anything, "locations").Return(locs, nil).Once()
	s.repo.On("ListNameRefs", mock.Anything, "machineclasses").Return(mcs, nil).Once()

	res, err := s.service.Refs(context.Background())

	s.NoError(err)
	s.Equal(locs, res.Locations)
	s.Equal(mcs, res.MachineClasses)
}

func (s *AnalyticsServiceTestSuite) TestRefs_Error() {
	s.repo.On("ListNameRefs", mock.Anything, "locations").Return(nil, errors.New("no reachable servers")).Once()

	_, err := s.service.Refs(context.Background())

	s.Error(err)
	s.ErrorContains(err, "list locations")
}
