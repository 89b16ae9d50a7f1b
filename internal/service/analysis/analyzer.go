package analysis

import (
	"math"
	"sort"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/shift"
)

const slotMinutes = 60

// Row is one hourly record of the daily timeline with its running production total.
type Row struct {
	Record            models.HourlyRecord `json:"record"`
	Cumulative        float64             `json:"cumulative"`
	MeetsTarget       bool                `json:"meets_target"`
	CumulativeOnTrack bool                `json:"cumulative_on_track"`
}

// Totals sums the daily timeline.
type Totals struct {
	Target        float64 `json:"target"`
	Actual        float64 `json:"actual"`
	StoppageCount int     `json:"stoppage_count"`
}

// Efficiency holds the schedule-adjusted efficiency figures. Percent is nil when the adjusted
// target is zero.
type Efficiency struct {
	ScheduledMinutes   float64  `json:"scheduled_minutes"`
	UnscheduledMinutes float64  `json:"unscheduled_minutes"`
	WindowMinutes      float64  `json:"window_minutes"`
	AvailableMinutes   float64  `json:"available_minutes"`
	AdjustedTarget     float64  `json:"adjusted_target"`
	Percent            *float64 `json:"percent"`
}

// DayResult is the detail view of one line on one calendar day. Empty days carry no totals and
// no efficiency.
type DayResult struct {
	Day        models.CalendarDate `json:"day"`
	Shift      models.ShiftCode    `json:"shift,omitempty"`
	Empty      bool                `json:"empty"`
	Rows       []Row               `json:"rows"`
	Totals     *Totals             `json:"totals,omitempty"`
	Efficiency *Efficiency         `json:"efficiency,omitempty"`
}

// EfficiencyPercent returns the efficiency figure, if computable.
func (r DayResult) EfficiencyPercent() (float64, bool) {
	if r.Efficiency == nil || r.Efficiency.Percent == nil {
		return 0, false
	}
	return *r.Efficiency.Percent, true
}

// UnplannedMinutes is the downtime not attributed to scheduled stoppages.
func (r DayResult) UnplannedMinutes() float64 {
	if r.Efficiency == nil {
		return 0
	}
	return r.Efficiency.UnscheduledMinutes
}

// Analyzer builds daily timelines and stoppage breakdowns.
type Analyzer struct {
	calendar *shift.Calendar
}

// NewAnalyzer wires an analyzer to the site shift calendar.
func NewAnalyzer(calendar *shift.Calendar) *Analyzer {
	if calendar == nil {
		calendar = shift.Default()
	}
	return &Analyzer{calendar: calendar}
}

// AnalyzeDay filters records to day (and shiftFilter when set), sorts them chronologically within
// their shifts and computes cumulative production, totals and efficiency.
func (a *Analyzer) AnalyzeDay(records []models.HourlyRecord, day models.CalendarDate, shiftFilter models.ShiftCode) DayResult {
	result := DayResult{Day: day, Shift: shiftFilter, Rows: []Row{}}

	selected := a.selectDay(records, day, shiftFilter)
	if len(selected) == 0 {
		result.Empty = true
		return result
	}

	totals := Totals{}
	eff := Efficiency{}
	var cumulative float64

	for i, record := range selected {
		cumulative += record.Actual
		totals.Target += record.Target
		totals.Actual += record.Actual
		totals.StoppageCount += len(record.Stoppages)

		for _, s := range record.Stoppages {
			if s.Scheduled() {
				eff.ScheduledMinutes += s.MinutesLost
			} else {
				eff.UnscheduledMinutes += s.MinutesLost
			}
		}

		result.Rows = append(result.Rows, Row{
			Record:            record,
			Cumulative:        cumulative,
			MeetsTarget:       record.Actual >= record.Target,
			CumulativeOnTrack: cumulative >= record.Target*float64(i+1),
		})
	}

	eff.WindowMinutes = float64(len(selected) * slotMinutes)
	eff.AvailableMinutes = eff.WindowMinutes - eff.ScheduledMinutes
	eff.AdjustedTarget = roundHalfUp(totals.Target * eff.AvailableMinutes / eff.WindowMinutes)
	if eff.AdjustedTarget != 0 {
		pct := RoundTo(totals.Actual/eff.AdjustedTarget*100, 1)
		if !math.IsNaN(pct) && !math.IsInf(pct, 0) {
			eff.Percent = &pct
		}
	}

	result.Totals = &totals
	result.Efficiency = &eff
	return result
}

func (a *Analyzer) selectDay(records []models.HourlyRecord, day models.CalendarDate, shiftFilter models.ShiftCode) []models.HourlyRecord {
	selected := make([]models.HourlyRecord, 0, len(records))
	for _, record := range records {
		if !record.HasTimestamp() || !models.DateOf(record.Timestamp).Equal(day) {
			continue
		}
		if shiftFilter != "" && record.Shift != shiftFilter {
			continue
		}
		selected = append(selected, record)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return a.calendar.AdjustedMinutes(selected[i].StartTime, selected[i].Shift) <
			a.calendar.AdjustedMinutes(selected[j].StartTime, selected[j].Shift)
	})
	return selected
}

// RoundTo rounds v to the given number of decimal places, rounding halves up.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return roundHalfUp(v*scale) / scale
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
