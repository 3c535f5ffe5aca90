package ask

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// QuerySummary is the human-readable view of a structured query, built
// from the only two fields this service understands: fields and filters.
// Everything else in the query stays opaque.
type QuerySummary struct {
	Fields  []string        `json:"fields,omitempty"`
	Filters []FilterSummary `json:"filters,omitempty"`
}

type FilterSummary struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

type filterInfo struct {
	Kind       string `json:"kind"`
	Values     any    `json:"values"`
	IsNegative bool   `json:"is_negative"`
}

// SummarizeQuery decodes fields and filters from a structured query for
// display. Returns nil when the query is absent or carries neither.
func SummarizeQuery(query json.RawMessage) *QuerySummary {
	if query == nil {
		return nil
	}
	var parsed struct {
		Fields  []string              `json:"fields"`
		Filters map[string]filterInfo `json:"filters"`
	}
	if err := json.Unmarshal(query, &parsed); err != nil {
		return nil
	}
	if len(parsed.Fields) == 0 && len(parsed.Filters) == 0 {
		return nil
	}

	summary := &QuerySummary{Fields: parsed.Fields}

	fields := make([]string, 0, len(parsed.Filters))
	for field := range parsed.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		info := parsed.Filters[field]
		summary.Filters = append(summary.Filters, FilterSummary{
			Field:       field,
			Description: describeFilter(field, info),
		})
	}
	return summary
}

func describeFilter(field string, info filterInfo) string {
	operator := "is"
	if info.IsNegative {
		operator = "is not"
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s %s", field, operator, strings.ToLower(info.Kind), joinValues(info.Values)))
}

func joinValues(values any) string {
	switch v := values.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
