package analytics

import "time"

// Record is a single append-only flag usage entry. Records are created by
// the recorder at evaluation/tracking time and never mutated.
type Record struct {
	ID          string    `json:"id"`
	FlagName    string    `json:"flag_name"`
	UserID      string    `json:"user_id,omitempty"`
	Enabled     bool      `json:"enabled"`
	Variant     string    `json:"variant,omitempty"`
	Environment string    `json:"environment,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// day returns the UTC day bucket the record belongs to.
func (r Record) day() string {
	return r.Timestamp.UTC().Format(dayFormat)
}

const dayFormat = "2006-01-02"

// DayStats is the per-day slice of a usage report.
type DayStats struct {
	Date     string `json:"date"`
	Total    int    `json:"total"`
	Enabled  int    `json:"enabled"`
	Disabled int    `json:"disabled"`
}

// Report aggregates usage of one flag over a date range. UniqueUsers counts
// distinct non-anonymous user IDs; Malformed counts log entries that could
// not be decoded and were skipped.
type Report struct {
	FlagName    string         `json:"flag_name"`
	Environment string         `json:"environment,omitempty"`
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	Total       int            `json:"total"`
	Enabled     int            `json:"enabled"`
	Disabled    int            `json:"disabled"`
	Variants    map[string]int `json:"variants,omitempty"`
	UniqueUsers int            `json:"unique_users"`
	Malformed   int            `json:"malformed"`
	Days        []DayStats     `json:"days"`
}
