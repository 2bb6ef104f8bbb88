// Package schedule runs recurring scans configured with cron expressions.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// NextRunUTC returns the first time after now at which expr fires.
func NextRunUTC(expr string, now time.Time) (time.Time, error) {
	parsed, err := ParseExpression(expr)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.Next(now.UTC()), nil
}

// ParseExpression parses a standard 5-field cron expression. All expressions
// are evaluated in UTC; timezone prefixes are rejected.
func ParseExpression(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	parsed, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return parsed, nil
}
