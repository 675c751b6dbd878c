package models

import (
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC), "2025-01"},
		{time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC), "2025-12"},
		{time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), "2025-09"},
	}
	for _, tt := range tests {
		if got := MonthKey(tt.in); got != tt.want {
			t.Fatalf("MonthKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPreviousMonthKey(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		// Year rollover.
		{time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC), "2024-12"},
		// Day 31 must not skip a short month.
		{time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC), "2025-02"},
		{time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC), "2025-06"},
	}
	for _, tt := range tests {
		if got := PreviousMonthKey(tt.in); got != tt.want {
			t.Fatalf("PreviousMonthKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
