package demographics

import (
	"strconv"
	"strings"
)

// Summary is the population rollup across the matched rows.
type Summary struct {
	Total       float64 `json:"total"`
	Male        float64 `json:"male"`
	Female      float64 `json:"female"`
	Children    float64 `json:"children"`
	Teens       float64 `json:"teens"`
	YoungAdults float64 `json:"young_adults"`
	Adults      float64 `json:"adults"`
	Seniors     float64 `json:"seniors"`
	RowsCount   int     `json:"rows_count"`
}

// Aggregate sums the population columns across rows. Column names vary
// between dataset revisions, so each field tries its known aliases in order;
// a present but unreadable value falls through to the next alias.
func Aggregate(rows []map[string]any) Summary {
	var s Summary
	for _, row := range rows {
		s.Total += numField(row, "Total_MF", "total", "Total")
		s.Male += numField(row, "Total_M", "male")
		s.Female += numField(row, "Total_F", "female")
		s.Children += numField(row, "Child_MF", "children", "child_mf")
		s.Teens += numField(row, "Teen_MF", "teens", "teen_mf")
		s.YoungAdults += numField(row, "YoungAdult_MF", "young_adults")
		s.Adults += numField(row, "Adult_MF", "adults")
		s.Seniors += numField(row, "Senior_MF", "seniors")
	}
	s.RowsCount = len(rows)
	return s
}

func numField(row map[string]any, keys ...string) float64 {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
		case []byte:
			if f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64); err == nil {
				return f
			}
		}
	}
	return 0
}
