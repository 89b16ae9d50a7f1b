package mongodb

import (
	"sort"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

func olderThan(cutoff models.CalendarDate) func(models.HourlyRecord) bool {
	return func(record models.HourlyRecord) bool {
		return record.HasTimestamp() && models.DateOf(record.Timestamp).Before(cutoff)
	}
}

func onDay(day models.CalendarDate) func(models.HourlyRecord) bool {
	return func(record models.HourlyRecord) bool {
		return record.HasTimestamp() && models.DateOf(record.Timestamp).Equal(day)
	}
}

// groupByMonth deduplicates days and groups them by month, newest month and day first.
func groupByMonth(days []models.CalendarDate) []models.MonthDays {
	unique := make(map[models.CalendarDate]struct{}, len(days))
	for _, d := range days {
		unique[d] = struct{}{}
	}

	sorted := make([]models.CalendarDate, 0, len(unique))
	for d := range unique {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[j].Before(sorted[i]) })

	months := []models.MonthDays{}
	for _, d := range sorted {
		key := d.MonthKey()
		if n := len(months); n > 0 && months[n-1].Month == key {
			months[n-1].Days = append(months[n-1].Days, d)
			continue
		}
		months = append(months, models.MonthDays{Month: key, Days: []models.CalendarDate{d}})
	}
	return months
}
