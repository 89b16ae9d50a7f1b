package aggregation

import (
	"sort"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/shift"
)

// Report is the aggregation output together with the records that could not be placed.
type Report struct {
	Lines   []models.LineAggregate
	Dropped map[models.LineCode]int
}

// Aggregate groups records into one LineAggregate per known line. Records of unknown lines are
// dropped. The result has one entry per distinct code in knownLines, so len(knownLines) entries
// for a duplicate-free list; a repeated code keeps its first position only.
func Aggregate(records []models.HourlyRecord, knownLines []models.LineCode) []models.LineAggregate {
	return AggregateWithReport(records, knownLines).Lines
}

// AggregateWithReport is Aggregate that also counts dropped records per unknown line code.
func AggregateWithReport(records []models.HourlyRecord, knownLines []models.LineCode) Report {
	lines := make([]models.LineAggregate, 0, len(knownLines))
	index := make(map[models.LineCode]int, len(knownLines))
	for _, code := range knownLines {
		if _, dup := index[code]; dup {
			continue
		}
		index[code] = len(lines)
		lines = append(lines, models.LineAggregate{Line: code, Records: []models.HourlyRecord{}})
	}

	report := Report{Dropped: map[models.LineCode]int{}}

	for _, record := range records {
		i, ok := index[record.Line]
		if !ok {
			report.Dropped[record.Line]++
			continue
		}

		agg := &lines[i]
		agg.TargetTotal += record.Target
		agg.ActualTotal += record.Actual
		agg.Records = append(agg.Records, record)

		if !record.HasTimestamp() {
			continue
		}
		if agg.LastUpdated == nil || agg.LastUpdated.Before(record.Timestamp) {
			ts := record.Timestamp
			agg.LastUpdated = &ts
		}
	}

	for i := range lines {
		members := lines[i].Records
		sort.SliceStable(members, func(a, b int) bool {
			return shift.CoarseOrdinalOf(members[a].Timestamp) > shift.CoarseOrdinalOf(members[b].Timestamp)
		})
	}

	sort.SliceStable(lines, func(a, b int) bool {
		la, lb := lines[a].LastUpdated, lines[b].LastUpdated
		switch {
		case la == nil:
			return false
		case lb == nil:
			return true
		default:
			return la.After(*lb)
		}
	})

	report.Lines = lines
	return report
}
