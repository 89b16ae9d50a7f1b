package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

// Fallback labels for stoppages missing a category or a note.
const (
	UncategorizedLabel = "uncategorized"
	NoNoteLabel        = "no note"
)

// Drill selects the breakdown level: no category means level 1, a category alone means level 2,
// category and cause mean level 3.
type Drill struct {
	Category string `json:"category,omitempty"`
	Cause    string `json:"cause,omitempty"`
}

// Level returns the breakdown level (1..3) the drill points at.
func (d Drill) Level() int {
	switch {
	case d.Category == "":
		return 1
	case d.Cause == "":
		return 2
	default:
		return 3
	}
}

// ParetoGroup is one ranked bucket of stoppage minutes.
type ParetoGroup struct {
	Key               string  `json:"key"`
	Minutes           float64 `json:"minutes"`
	Count             int     `json:"count"`
	Percent           float64 `json:"percent"`
	CumulativePercent float64 `json:"cumulative_percent"`
}

// ParetoResult is a ranked, cumulative breakdown of stoppage minutes at one drill level.
type ParetoResult struct {
	Day          models.CalendarDate `json:"day"`
	Level        int                 `json:"level"`
	Drill        Drill               `json:"drill"`
	TotalMinutes float64             `json:"total_minutes"`
	Groups       []ParetoGroup       `json:"groups"`
}

// Pareto groups the stoppages of the day's records at the level selected by drill.
func (a *Analyzer) Pareto(records []models.HourlyRecord, day models.CalendarDate, shiftFilter models.ShiftCode, drill Drill) ParetoResult {
	result := ParetoResult{Day: day, Level: drill.Level(), Drill: drill, Groups: []ParetoGroup{}}

	var stoppages []models.Stoppage
	for _, record := range a.selectDay(records, day, shiftFilter) {
		stoppages = append(stoppages, record.Stoppages...)
	}

	var keyOf func(models.Stoppage) (string, bool)
	switch result.Level {
	case 1:
		keyOf = func(s models.Stoppage) (string, bool) {
			return CategoryKey(s.Category), true
		}
	case 2:
		keyOf = func(s models.Stoppage) (string, bool) {
			if !matchesCategory(s, drill.Category) {
				return "", false
			}
			return CauseKey(s), true
		}
	default:
		keyOf = func(s models.Stoppage) (string, bool) {
			if !matchesCategory(s, drill.Category) || CauseKey(s) != drill.Cause {
				return "", false
			}
			if strings.TrimSpace(s.Note) == "" {
				return NoNoteLabel, true
			}
			return s.Note, true
		}
	}

	result.Groups, result.TotalMinutes = rank(stoppages, keyOf)
	return result
}

// CategoryKey is the level-1 key: the first whitespace-delimited token of the category.
func CategoryKey(category string) string {
	fields := strings.Fields(category)
	if len(fields) == 0 {
		return UncategorizedLabel
	}
	return fields[0]
}

// CauseKey is the level-2 key of a stoppage.
func CauseKey(s models.Stoppage) string {
	return fmt.Sprintf("%s - %s", s.Code, s.Description)
}

// matchesCategory uses the same trimmed text CategoryKey reads, so every stoppage counted under
// a level-1 group is found again when drilling into it.
func matchesCategory(s models.Stoppage, key string) bool {
	category := strings.TrimSpace(s.Category)
	if key == UncategorizedLabel && category == "" {
		return true
	}
	return strings.HasPrefix(category, key)
}

func rank(stoppages []models.Stoppage, keyOf func(models.Stoppage) (string, bool)) ([]ParetoGroup, float64) {
	groups := []ParetoGroup{}
	index := map[string]int{}
	var total float64

	for _, s := range stoppages {
		key, ok := keyOf(s)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, ParetoGroup{Key: key})
		}
		groups[i].Minutes += s.MinutesLost
		groups[i].Count++
		total += s.MinutesLost
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Minutes > groups[j].Minutes
	})

	if total <= 0 {
		return groups, total
	}

	var running float64
	for i := range groups {
		running += groups[i].Minutes
		groups[i].Percent = groups[i].Minutes / total * 100
		groups[i].CumulativePercent = running / total * 100
	}
	return groups, total
}
