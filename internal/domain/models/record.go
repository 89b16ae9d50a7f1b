package models

import (
	"time"
)

// LineCode identifies a physical production line (e.g. "A", "VR").
type LineCode string

// ShiftCode identifies a scheduled working shift.
type ShiftCode string

// ScheduledStoppageCategory marks stoppages that shrink the available production window
// instead of counting as unplanned downtime.
const ScheduledStoppageCategory = "parada programada"

// Stoppage is one downtime event within an hourly record.
type Stoppage struct {
	Code        string  `json:"code"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description"`
	Note        string  `json:"note,omitempty"`
	MinutesLost float64 `json:"minutes_lost"`
}

// Scheduled reports whether the stoppage belongs to the scheduled category.
func (s Stoppage) Scheduled() bool {
	return s.Category == ScheduledStoppageCategory
}

// HourlyRecord is one production-line, one hour-slot observation.
type HourlyRecord struct {
	ID        string     `json:"id"`
	Line      LineCode   `json:"line"`
	Shift     ShiftCode  `json:"shift"`
	Timestamp time.Time  `json:"timestamp"`
	StartTime string     `json:"start_time,omitempty"`
	EndTime   string     `json:"end_time,omitempty"`
	Target    float64    `json:"target"`
	Actual    float64    `json:"actual"`
	Stoppages []Stoppage `json:"stoppages"`
}

// HasTimestamp reports whether the record carried a usable date.
func (r HourlyRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// LineAggregate is the derived per-line summary shown on the overview.
type LineAggregate struct {
	Line        LineCode       `json:"line"`
	TargetTotal float64        `json:"target_total"`
	ActualTotal float64        `json:"actual_total"`
	Records     []HourlyRecord `json:"records"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}
