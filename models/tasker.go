package models

import "time"

// Tasker is one provider card from the recommended-taskers listing.
// Optional fields are nil when the card does not show them.
type Tasker struct {
	Name              string
	HourlyRate        *float64
	ReviewRating      *float64
	ReviewCount       *int
	CategoryTaskCount *int
	OverallTaskCount  *int
	TwoHourMinimum    bool
	EliteStatus       bool
}

type RunResult struct {
	RunID        string
	CategoryKey  string
	CategoryName string
	Taskers      []Tasker
	Pages        int
	Skipped      int
	StartedAt    time.Time
	OutputPath   string
}

// CategoryOutcome is the per-category entry of a multi-category run.
// Exactly one of Result and Err is set.
type CategoryOutcome struct {
	Key    string
	Result *RunResult
	Err    error
}
