package models

import (
	"fmt"
	"time"
)

// MonthlyUsage is the per-user, per-calendar-month AI usage ledger entry.
// It lives at users/{userId}/aiUsage/{YYYY-MM}. A missing entry means zero
// usage for that month; counters only ever grow within a month.
type MonthlyUsage struct {
	Requests     int64     `json:"requests" firestore:"requests"`
	InputTokens  int64     `json:"inputTokens" firestore:"inputTokens"`
	OutputTokens int64     `json:"outputTokens" firestore:"outputTokens"`
	Cost         float64   `json:"cost" firestore:"cost"`
	LastUpdated  time.Time `json:"lastUpdated" firestore:"lastUpdated"`
}

// UsageDelta is a single successful generation call's contribution to the ledger.
type UsageDelta struct {
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// MonthKey returns the ledger document key ("YYYY-MM") for the given instant.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PreviousMonthKey returns the ledger key for the month before the given
// instant, which is what the scheduled report aggregates.
func PreviousMonthKey(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthKey(firstOfMonth.AddDate(0, 0, -1))
}

// UsageReport is the monthly aggregate over every user's ledger entry.
type UsageReport struct {
	MonthYear         string  `json:"monthYear"`
	TotalUsers        int     `json:"totalUsers"`
	ActiveUsers       int     `json:"activeUsers"`
	TotalRequests     int64   `json:"totalRequests"`
	TotalCost         float64 `json:"totalCost"`
	TotalInputTokens  int64   `json:"totalInputTokens"`
	TotalOutputTokens int64   `json:"totalOutputTokens"`
	AvgRequests       float64 `json:"avgRequests"`
	AvgCost           float64 `json:"avgCost"`
}
