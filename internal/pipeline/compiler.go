package pipeline

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"apms-analytics-service/internal/model"
)

// DurationField is the synthetic metric source for timer collections. It
// never maps to a stored field; the compiler derives it before grouping.
const DurationField = "durationSec"

// derivedField holds the computed duration inside the pipeline.
const derivedField = "__durationSec"

const (
	defaultTimeField = "createdAt"
	defaultLimit     = 200
)

// timerCollections carry paired start/end timestamps, so a duration in
// seconds can be derived per document.
var timerCollections = map[string]bool{
	"timerlogs":         true,
	"timerloghistories": true,
	"controllertimers":  true,
}

// reservedFilterKeys never become equality conditions.
var reservedFilterKeys = map[string]bool{
	"from":      true,
	"to":        true,
	"timeField": true,
}

var bucketFormats = map[string]string{
	"day":   "%Y-%m-%d",
	"month": "%Y-%m",
	"hour":  "%Y-%m-%d %H:00",
}

// reducers maps a metric op to its accumulator builder. Adding a reducer is a
// table entry, not a new branch. Ops missing from the table are dropped
// without error; dashboards tolerate misconfigured requests.
var reducers = map[string]func(src any) bson.D{
	"sum": func(src any) bson.D {
		return bson.D{{Key: "$sum", Value: bson.D{{Key: "$ifNull", Value: bson.A{src, 0}}}}}
	},
	"avg": func(src any) bson.D {
		return bson.D{{Key: "$avg", Value: src}}
	},
	"min": func(src any) bson.D {
		return bson.D{{Key: "$min", Value: src}}
	},
	"max": func(src any) bson.D {
		return bson.D{{Key: "$max", Value: src}}
	},
	"count": func(any) bson.D {
		return bson.D{{Key: "$sum", Value: 1}}
	},
}

// Metric is a validated metric spec with its lowered op and resolved output
// column name.
type Metric struct {
	Op     string
	Field  string
	Output string
}

// Plan is a compiled request: the stages to execute plus the shape
// information the normalizer needs to build the column list.
type Plan struct {
	Collection string
	Stages     mongo.Pipeline
	TimeBucket bool
	Dimensions []string
	Metrics    []Metric
}

// Compile deterministically translates a request into an ordered aggregation
// pipeline. It is a pure function; nothing here touches the store.
func Compile(req model.AnalyticsRequest) Plan {
	timeField := resolveTimeField(req)

	plan := Plan{Collection: req.Collection, Metrics: validMetrics(req.Metrics)}

	if timerCollections[req.Collection] {
		plan.Stages = append(plan.Stages, durationStage(timeField))
	}

	if match := buildMatch(req.Filters, timeField); len(match) > 0 {
		plan.Stages = append(plan.Stages, bson.D{{Key: "$match", Value: match}})
	}

	var groupID bson.D
	if format, ok := bucketFormats[strings.ToLower(req.Group.TimeBucket)]; ok {
		groupID = append(groupID, bson.E{Key: "t", Value: timeKey(format, timeField)})
		plan.TimeBucket = true
	}
	for _, dim := range req.Group.By {
		groupID = append(groupID, bson.E{Key: dim, Value: "$" + dim})
		plan.Dimensions = append(plan.Dimensions, dim)
	}

	accums := buildAccumulators(plan.Metrics)

	// A group key without accumulators still groups (distinct keys); bare
	// accumulators collapse everything into one universal bucket.
	if len(groupID) > 0 || len(accums) > 0 {
		plan.Stages = append(plan.Stages, groupStage(groupID, accums))
	}

	if req.Sort.By != "" {
		dir := -1
		if req.Sort.Order == model.SortAsc {
			dir = 1
		}
		plan.Stages = append(plan.Stages, bson.D{{Key: "$sort", Value: bson.D{{Key: req.Sort.By, Value: dir}}}})
	} else if plan.TimeBucket {
		plan.Stages = append(plan.Stages, bson.D{{Key: "$sort", Value: bson.D{{Key: "_id.t", Value: 1}}}})
	}

	if limit := resolveLimit(req.Limit); limit > 0 {
		plan.Stages = append(plan.Stages, bson.D{{Key: "$limit", Value: limit}})
	}

	return plan
}

// resolveTimeField picks the field time conditions and buckets apply to.
func resolveTimeField(req model.AnalyticsRequest) string {
	if req.Group.TimeField != "" {
		return req.Group.TimeField
	}
	if tf := stringValue(req.Filters["timeField"]); tf != "" {
		return tf
	}
	return defaultTimeField
}

// validMetrics lowers ops and drops the ones with no reducer.
func validMetrics(specs []model.MetricSpec) []Metric {
	var out []Metric
	for _, m := range specs {
		op := strings.ToLower(m.Op)
		if _, ok := reducers[op]; !ok {
			continue
		}
		out = append(out, Metric{Op: op, Field: m.Field, Output: m.OutputName()})
	}
	return out
}

// buildMatch folds equality filters and the time window into one condition
// document. Equality keys are emitted in sorted order so identical requests
// compile to identical pipelines.
func buildMatch(filters map[string]any, timeField string) bson.D {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		if reservedFilterKeys[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var match bson.D
	for _, k := range keys {
		v := filters[k]
		if v == nil || v == "" {
			continue
		}
		match = append(match, bson.E{Key: k, Value: v})
	}

	from := parseTime(stringValue(filters["from"]))
	to := parseTime(stringValue(filters["to"]))
	if from == nil && to == nil {
		return match
	}

	// Closed-inclusive on both ends.
	var window bson.D
	if from != nil {
		window = append(window, bson.E{Key: "$gte", Value: *from})
	}
	if to != nil {
		window = append(window, bson.E{Key: "$lte", Value: *to})
	}

	// A window on a field that also carries an equality filter replaces it.
	for i := range match {
		if match[i].Key == timeField {
			match[i].Value = window
			return match
		}
	}
	return append(match, bson.E{Key: timeField, Value: window})
}

// durationStage derives the per-document duration in seconds, null unless
// both boundary timestamps are present.
func durationStage(timeField string) bson.D {
	cond := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$ne", Value: bson.A{"$endedAt", nil}}},
			bson.D{{Key: "$ne", Value: bson.A{"$" + timeField, nil}}},
		}}},
		bson.D{{Key: "$divide", Value: bson.A{
			bson.D{{Key: "$subtract", Value: bson.A{"$endedAt", "$" + timeField}}},
			1000,
		}}},
		nil,
	}}}

	return bson.D{{Key: "$addFields", Value: bson.D{{Key: derivedField, Value: cond}}}}
}

func timeKey(format, field string) bson.D {
	return bson.D{{Key: "$dateToString", Value: bson.D{
		{Key: "format", Value: format},
		{Key: "date", Value: "$" + field},
	}}}
}

// buildAccumulators maps metrics through the reducer table. Duplicate output
// names keep the first position but take the last definition.
func buildAccumulators(metrics []Metric) bson.D {
	var accums bson.D
	index := map[string]int{}
	for _, m := range metrics {
		src := any("$" + m.Field)
		if m.Field == DurationField {
			src = "$" + derivedField
		}
		acc := reducers[m.Op](src)

		if i, ok := index[m.Output]; ok {
			accums[i].Value = acc
			continue
		}
		index[m.Output] = len(accums)
		accums = append(accums, bson.E{Key: m.Output, Value: acc})
	}
	return accums
}

func groupStage(id bson.D, accums bson.D) bson.D {
	group := bson.D{{Key: "_id", Value: nil}}
	if len(id) > 0 {
		group[0].Value = id
	}
	group = append(group, accums...)
	return bson.D{{Key: "$group", Value: group}}
}

// resolveLimit substitutes the default for non-positive values; dashboards
// send a zero limit to mean unset, not unlimited.
func resolveLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

// timeLayouts are the boundary encodings accepted for from/to, broadest
// first. Unparseable values are ignored, the window condition is simply not
// emitted for them.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
