package schedule

import (
	"testing"
	"time"
)

func TestNextRunUTC(t *testing.T) {
	tests := []struct {
		name string
		expr string
		now  time.Time
		want time.Time
	}{
		{
			name: "daily before fire time",
			expr: "0 2 * * *",
			now:  time.Date(2026, 8, 20, 1, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 20, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "daily after fire time rolls over",
			expr: "0 2 * * *",
			now:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 21, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "every fifteen minutes",
			expr: "*/15 * * * *",
			now:  time.Date(2026, 8, 20, 10, 7, 0, 0, time.UTC),
			want: time.Date(2026, 8, 20, 10, 15, 0, 0, time.UTC),
		},
		{
			name: "weekly on monday",
			expr: "30 6 * * 1",
			now:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 24, 6, 30, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextRunUTC(tt.expr, tt.now)
			if err != nil {
				t.Fatalf("NextRunUTC(%q) error = %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("NextRunUTC(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseExpression_Rejections(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"cron_tz prefix", "CRON_TZ=America/New_York 0 2 * * *"},
		{"tz prefix", "TZ=UTC 0 2 * * *"},
		{"lowercase tz prefix", "cron_tz=Europe/Berlin 0 2 * * *"},
		{"four fields", "0 2 * *"},
		{"six fields", "0 0 2 * * *"},
		{"minute out of range", "61 * * * *"},
		{"descriptor", "@daily"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseExpression(tt.expr); err == nil {
				t.Fatalf("ParseExpression(%q) expected error", tt.expr)
			}
		})
	}
}

func TestNextRunUTC_NormalizesToUTC(t *testing.T) {
	eastern := time.FixedZone("EST", -5*60*60)
	now := time.Date(2026, 8, 20, 1, 0, 0, 0, eastern)

	got, err := NextRunUTC("0 * * * *", now)
	if err != nil {
		t.Fatalf("NextRunUTC() error = %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", got.Location())
	}
	if want := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("NextRunUTC() = %v, want %v", got, want)
	}
}
