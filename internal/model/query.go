package model

import (
	"encoding/json"
	"strings"
)

// AnalyticsRequest describes a single chart/report query: which collection to
// aggregate, how to filter and group it, and which metrics to compute.
type AnalyticsRequest struct {
	Collection string         `json:"collection"`
	Filters    map[string]any `json:"filters"`
	Group      GroupSpec      `json:"group"`
	Metrics    []MetricSpec   `json:"metrics"`
	Limit      int            `json:"limit"`
	Sort       SortSpec       `json:"sort"`
}

// GroupSpec controls time bucketing and grouping dimensions.
type GroupSpec struct {
	TimeBucket string   `json:"timeBucket"`
	TimeField  string   `json:"timeField"`
	By         []string `json:"by"`
}

// MetricSpec is one requested aggregation over a field.
type MetricSpec struct {
	Op    string `json:"op"`
	Field string `json:"field"`
	As    string `json:"as"`
}

// OutputName resolves the result column name for the metric.
func (m MetricSpec) OutputName() string {
	if m.As != "" {
		return m.As
	}
	return strings.ToLower(m.Op) + "_" + m.Field
}

// SortSpec orders the aggregated rows by a result field.
type SortSpec struct {
	By    string    `json:"by"`
	Order SortOrder `json:"order"`
}

// SortOrder is the sort direction. Payloads encode it either numerically
// (1/-1, the store's convention) or as "asc"/"desc"; anything unrecognized
// sorts descending.
type SortOrder int

const (
	SortAsc  SortOrder = 1
	SortDesc SortOrder = -1
)

func (o *SortOrder) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.EqualFold(s, "asc") {
			*o = SortAsc
		} else {
			*o = SortDesc
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil && n == 1 {
		*o = SortAsc
		return nil
	}

	*o = SortDesc
	return nil
}

// DowntimeFilter narrows the downtime-by-reason report.
type DowntimeFilter struct {
	LocationID string
	From       string
	To         string
}
