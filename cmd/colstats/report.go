package main

import (
	"encoding/json"
	"io"
	"math"

	"github.com/influxdata/colstats/stats"
)

// writeReport encodes res as indented JSON. NaN and infinite values, which
// JSON cannot represent, are written as null.
func writeReport(w io.Writer, res stats.Result) error {
	out := make(map[string]map[string]interface{}, len(res))
	for stat, values := range res {
		m := make(map[string]interface{}, len(values))
		for col, v := range values {
			m[col] = sanitize(v)
		}
		out[stat] = m
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func sanitize(v interface{}) interface{} {
	switch v := v.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case []float64:
		out := make([]interface{}, len(v))
		for i, f := range v {
			out[i] = sanitize(f)
		}
		return out
	default:
		return v
	}
}
