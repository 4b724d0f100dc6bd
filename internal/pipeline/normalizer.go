package pipeline

import (
	"go.mongodb.org/mongo-driver/bson"

	"apms-analytics-service/internal/model"
)

// Normalize projects raw aggregation rows into the columnar shape every chart
// renderer consumes: the `t` bucket (when requested), then each grouping
// dimension, then each metric output. Group combinations absent from the
// result produce no row; nothing is back-filled with zeros.
func Normalize(plan Plan, rows []bson.M) model.QueryResult {
	columns := make([]string, 0, 1+len(plan.Dimensions)+len(plan.Metrics))
	if plan.TimeBucket {
		columns = append(columns, "t")
	}
	columns = append(columns, plan.Dimensions...)
	for _, m := range plan.Metrics {
		columns = append(columns, m.Output)
	}

	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		// _id is the composite group key; nil for the universal bucket.
		id, _ := r["_id"].(bson.M)

		row := make([]any, 0, len(columns))
		if plan.TimeBucket {
			row = append(row, id["t"])
		}
		for _, dim := range plan.Dimensions {
			row = append(row, id[dim])
		}
		for _, m := range plan.Metrics {
			row = append(row, coerceNumeric(r[m.Output]))
		}
		out = append(out, row)
	}

	if rows == nil {
		rows = []bson.M{}
	}

	return model.QueryResult{Columns: columns, Rows: out, Raw: rows}
}

// coerceNumeric flattens the driver's numeric widths to float64 so chart
// clients see a single numeric type. Non-numeric values, bucket strings and
// nulls included, pass through untouched.
func coerceNumeric(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
