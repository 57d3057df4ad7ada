package datetime

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"Plain date", "2024-07-01", "2024-07-01", false},
		{"Padded", " 2024-07-01 ", "2024-07-01", false},
		{"RFC3339 timestamp", "2024-07-01T15:04:05Z", "2024-07-01", false},
		{"RFC3339 keeps local calendar date", "2024-07-01T22:00:00-04:00", "2024-07-01", false},
		{"Garbage", "July first", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.Format(DateLayout) != tt.expected {
				t.Errorf("ParseDate(%q) = %s, expected %s", tt.input, got.Format(DateLayout), tt.expected)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
	}{
		{"Quarter", "2024-01-01", 3, "2024-04-01"},
		{"Across year", "2024-11-15", 2, "2025-01-15"},
		{"Clamp to leap February", "2024-01-31", 1, "2024-02-29"},
		{"Clamp to February", "2023-01-31", 1, "2023-02-28"},
		{"Clamp to thirty days", "2024-03-31", 1, "2024-04-30"},
		{"Month end kept when valid", "2024-01-31", 2, "2024-03-31"},
		{"Negative months", "2024-03-31", -1, "2024-02-29"},
		{"Zero months", "2024-05-10", 0, "2024-05-10"},
		{"Semester", "2024-08-31", 6, "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, err := ParseDate(tt.date)
			if err != nil {
				t.Fatalf("ParseDate(%s) unexpected error: %v", tt.date, err)
			}
			got := AddMonths(start, tt.months)
			if got.Format(DateLayout) != tt.expected {
				t.Errorf("AddMonths(%s, %d) = %s, expected %s", tt.date, tt.months, got.Format(DateLayout), tt.expected)
			}
		})
	}
}

func TestAddMonthsKeepsClock(t *testing.T) {
	start := time.Date(2024, time.January, 31, 13, 30, 0, 0, time.UTC)
	got := AddMonths(start, 1)
	if got.Hour() != 13 || got.Minute() != 30 {
		t.Errorf("AddMonths dropped the clock: %v", got)
	}
}
