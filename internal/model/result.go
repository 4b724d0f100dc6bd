package model

import "go.mongodb.org/mongo-driver/bson"

// QueryResult is the normalized columnar answer to an AnalyticsRequest. Rows
// align with Columns; Raw carries the unprocessed aggregation output for
// callers that need fields the tabular projection drops.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Raw     []bson.M `json:"raw"`
}

// NameRef is an id/name pair for dashboard reference pickers.
type NameRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// RefsResponse bundles the reference lists the dashboard filters on.
type RefsResponse struct {
	Locations      []NameRef `json:"locations"`
	MachineClasses []NameRef `json:"machineclasses"`
}

// DayCount is one cell of the daily activity heatmap.
type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ReasonCount is one bar of the stop-reason pareto chart.
type ReasonCount struct {
	StopReason string `json:"stopReason"`
	Count      int64  `json:"count"`
}

// DowntimeItem is total downtime attributed to one stop reason.
type DowntimeItem struct {
	StopReason       string  `json:"stopReason"`
	TotalDurationSec float64 `json:"totalDurationSec"`
}
