package api

import "time"

// QueryFilter defines criteria for querying audit records.
type QueryFilter struct {
	Since      time.Time  `json:"since,omitempty"`
	Until      time.Time  `json:"until,omitempty"`
	Entrypoint Entrypoint `json:"entrypoint,omitempty"`
	Category   Category   `json:"category,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// AuditStats provides summary statistics for the dashboard.
type AuditStats struct {
	TotalSuppressed int                `json:"total_suppressed"`
	Redirects       int                `json:"redirects"`
	ByCategory      map[Category]int   `json:"by_category"`
	ByEntrypoint    map[Entrypoint]int `json:"by_entrypoint"`
	ByStatus        map[int]int        `json:"by_status"`
}
