package reporting

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/analysis"
)

// Document is a shareable production report for one line and day.
type Document struct {
	ID                string                `json:"id"`
	Line              models.LineCode       `json:"line"`
	Day               models.CalendarDate   `json:"day"`
	Shift             models.ShiftCode      `json:"shift,omitempty"`
	GeneratedAt       time.Time             `json:"generated_at"`
	Empty             bool                  `json:"empty"`
	Rows              []DocumentRow         `json:"rows"`
	Totals            analysis.Totals       `json:"totals"`
	EfficiencyPercent *float64              `json:"efficiency_percent"`
	UnplannedMinutes  float64               `json:"unplanned_minutes"`
	Pareto            analysis.ParetoResult `json:"pareto"`
}

// DocumentRow mirrors one line of the detail timeline.
type DocumentRow struct {
	Start       string            `json:"start"`
	End         string            `json:"end"`
	Shift       models.ShiftCode  `json:"shift"`
	Target      float64           `json:"target"`
	Actual      float64           `json:"actual"`
	Cumulative  float64           `json:"cumulative"`
	MeetsTarget bool              `json:"meets_target"`
	Stoppages   []models.Stoppage `json:"stoppages"`
}

// Build assembles a report from already computed analysis results. Figures are copied, never
// recomputed, so the report always matches the detail view.
func Build(line models.LineCode, day analysis.DayResult, pareto analysis.ParetoResult, now time.Time) Document {
	doc := Document{
		ID:          uuid.NewString(),
		Line:        line,
		Day:         day.Day,
		Shift:       day.Shift,
		GeneratedAt: now,
		Empty:       day.Empty,
		Rows:        make([]DocumentRow, 0, len(day.Rows)),
		Pareto:      pareto,
	}

	for _, row := range day.Rows {
		doc.Rows = append(doc.Rows, DocumentRow{
			Start:       row.Record.StartTime,
			End:         row.Record.EndTime,
			Shift:       row.Record.Shift,
			Target:      row.Record.Target,
			Actual:      row.Record.Actual,
			Cumulative:  row.Cumulative,
			MeetsTarget: row.MeetsTarget,
			Stoppages:   row.Record.Stoppages,
		})
	}

	if day.Totals != nil {
		doc.Totals = *day.Totals
	}
	if pct, ok := day.EfficiencyPercent(); ok {
		doc.EfficiencyPercent = &pct
	}
	doc.UnplannedMinutes = day.UnplannedMinutes()

	return doc
}

// EfficiencyLabel renders the efficiency figure, or "n/a" when it is not computable.
func (d Document) EfficiencyLabel() string {
	if d.EfficiencyPercent == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*d.EfficiencyPercent, 'f', 1, 64) + "%"
}

// FileName is the suggested name for exported artifacts.
func (d Document) FileName(ext string) string {
	return "report-" + string(d.Line) + "-" + d.Day.String() + "." + ext
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
