package models

import "time"

// RecordFilter narrows a record query. Empty fields match everything.
type RecordFilter struct {
	Shift ShiftCode `json:"shift,omitempty"`
	Line  LineCode  `json:"line,omitempty"`
}

// Snapshot is a complete record set for a filter at one point in time. Consumers replace
// their derived state with it, they never patch.
type Snapshot struct {
	Filter  RecordFilter
	Records []HourlyRecord
	At      time.Time
}

// SnapshotStream is a live subscription to record snapshots. Close must be called once the
// consumer is done; it is safe to call more than once.
type SnapshotStream interface {
	Snapshots() <-chan Snapshot
	Err() error
	Close()
}
