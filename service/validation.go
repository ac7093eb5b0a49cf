package service

import (
	"strings"
	"time"

	"finance-agent/domain"
)

// ParseStrategy accepts avalanche, avalanche-default and snowball. An
// empty value selects avalanche.
func ParseStrategy(raw string) (domain.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "avalanche", "avalanche-default":
		return domain.Avalanche, nil
	case "snowball":
		return domain.Snowball, nil
	default:
		return "", domain.InvalidInput("strategy must be one of avalanche, avalanche-default, snowball")
	}
}

func validateDateRange(r domain.DateRange) error {
	bounds := []struct{ name, value string }{{"start", r.Start}, {"end", r.End}}
	for _, b := range bounds {
		if b.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", b.value); err != nil {
			return domain.InvalidInput("%s must be YYYY-MM-DD", b.name)
		}
	}
	return nil
}

func validateMonth(month string) error {
	if _, err := time.Parse("2006-01", month); err != nil {
		return domain.InvalidInput("month must be YYYY-MM (e.g., 2024-03)")
	}
	return nil
}

func requireTerm(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", domain.InvalidInput("q is required")
	}
	return q, nil
}
