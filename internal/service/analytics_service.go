package service

import (
	"context"
	"fmt"
	"strings"

	"apms-analytics-service/internal/model"
	"apms-analytics-service/internal/pipeline"
	"apms-analytics-service/internal/repository"
)

// ValidationError represents user input issues.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	// dailyCountLimit caps the heatmap at roughly five years of days.
	dailyCountLimit = 2000

	defaultParetoLimit = 20
)

// AnalyticsService turns chart/report requests into store queries and
// pre-shaped results.
type AnalyticsService interface {
	// Query runs the generic analytics engine for an arbitrary request.
	Query(ctx context.Context, req model.AnalyticsRequest) (model.QueryResult, error)

	// DailyCounts returns per-day timer event counts for the heatmap.
	DailyCounts(ctx context.Context) ([]model.DayCount, error)

	// StopReasonPareto returns the most frequent stop reasons.
	StopReasonPareto(ctx context.Context, limit int) ([]model.ReasonCount, error)

	// DowntimeReasons returns total downtime seconds per stop reason.
	DowntimeReasons(ctx context.Context, filter model.DowntimeFilter) ([]model.DowntimeItem, error)

	// Refs returns the reference lists dashboards filter on.
	Refs(ctx context.Context) (model.RefsResponse, error)
}

type analyticsService struct {
	repo repository.AnalyticsRepository
}

// NewAnalyticsService constructs an analyticsService.
func NewAnalyticsService(repo repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{repo: repo}
}

// Query compiles the request into an aggregation pipeline, executes it, and
// normalizes the rows into the columnar result shape. Empty results are a
// valid success; only an unusable collection name or a store failure is an
// error.
func (s *analyticsService) Query(ctx context.Context, req model.AnalyticsRequest) (model.QueryResult, error) {
	if strings.TrimSpace(req.Collection) == "" {
		return model.QueryResult{}, &ValidationError{Message: "collection is required"}
	}

	plan := pipeline.Compile(req)

	rows, err := s.repo.Aggregate(ctx, plan.Collection, plan.Stages)
	if err != nil {
		return model.QueryResult{}, fmt.Errorf("run analytics query: %w", err)
	}

	return pipeline.Normalize(plan, rows), nil
}

// DailyCounts is the heatmap query routed through the generic engine:
// timerlogs bucketed by day with a single count metric.
func (s *analyticsService) DailyCounts(ctx context.Context) ([]model.DayCount, error) {
	res, err := s.Query(ctx, model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{TimeBucket: "day"},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
		Limit:      dailyCountLimit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.DayCount, 0, len(res.Rows))
	for _, row := range res.Rows {
		day, _ := row[0].(string)
		items = append(items, model.DayCount{Day: day, Count: asInt64(row[1])})
	}
	return items, nil
}

// StopReasonPareto groups timerlogs by stop reason and keeps the top
// offenders. Rows without a reason are dropped from the chart.
func (s *analyticsService) StopReasonPareto(ctx context.Context, limit int) ([]model.ReasonCount, error) {
	if limit <= 0 {
		limit = defaultParetoLimit
	}

	res, err := s.Query(ctx, model.AnalyticsRequest{
		Collection: "timerlogs",
		Group:      model.GroupSpec{By: []string{"stopReason"}},
		Metrics:    []model.MetricSpec{{Op: "count", As: "n"}},
		Sort:       model.SortSpec{By: "n", Order: model.SortDesc},
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.ReasonCount, 0, len(res.Rows))
	for _, row := range res.Rows {
		reason, ok := row[0].(string)
		if !ok || reason == "" {
			continue
		}
		items = append(items, model.ReasonCount{StopReason: reason, Count: asInt64(row[1])})
	}
	return items, nil
}

// DowntimeReasons sums the derived duration per stop reason over an optional
// location and time window. Unattributed downtime is reported as "Unknown".
func (s *analyticsService) DowntimeReasons(ctx context.Context, filter model.DowntimeFilter) ([]model.DowntimeItem, error) {
	filters := map[string]any{}
	if filter.LocationID != "" {
		filters["locationId"] = filter.LocationID
	}
	if filter.From != "" {
		filters["from"] = filter.From
	}
	if filter.To != "" {
		filters["to"] = filter.To
	}

	res, err := s.Query(ctx, model.AnalyticsRequest{
		Collection: "timerlogs",
		Filters:    filters,
		Group:      model.GroupSpec{By: []string{"stopReason"}},
		Metrics:    []model.MetricSpec{{Op: "sum", Field: pipeline.DurationField, As: "totalDurationSec"}},
		Sort:       model.SortSpec{By: "totalDurationSec", Order: model.SortDesc},
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.DowntimeItem, 0, len(res.Rows))
	for _, row := range res.Rows {
		reason, ok := row[0].(string)
		if !ok || reason == "" {
			reason = "Unknown"
		}
		total, _ := row[1].(float64)
		items = append(items, model.DowntimeItem{StopReason: reason, TotalDurationSec: total})
	}
	return items, nil
}

// Refs loads the id/name reference lists for dashboard pickers.
func (s *analyticsService) Refs(ctx context.Context) (model.RefsResponse, error) {
	locs, err := s.repo.ListNameRefs(ctx, "locations")
	if err != nil {
		return model.RefsResponse{}, fmt.Errorf("list locations: %w", err)
	}

	mcs, err := s.repo.ListNameRefs(ctx, "machineclasses")
	if err != nil {
		return model.RefsResponse{}, fmt.Errorf("list machineclasses: %w", err)
	}

	return model.RefsResponse{Locations: locs, MachineClasses: mcs}, nil
}

func asInt64(v any) int64 {
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return 0
}
