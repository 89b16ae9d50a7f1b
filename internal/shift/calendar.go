package shift

import (
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

const (
	minutesPerDay = 24 * 60

	// lateNightCutoff is 01:23, the last minute the coarse ordering treats as "after 16:03".
	lateNightCutoff = 83
)

// Window is a wall-clock interval in minutes past midnight. Start > End means the window
// crosses midnight. Both edges belong to the window.
type Window struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.Start > w.End
}

// Contains reports whether minute m (0..1439) lies inside the window.
func (w Window) Contains(m int) bool {
	if w.Wraps() {
		return m >= w.Start || m <= w.End
	}
	return m >= w.Start && m <= w.End
}

// DefaultWindows are the site shift windows.
func DefaultWindows() map[models.ShiftCode]Window {
	return map[models.ShiftCode]Window{
		"A": {Start: 1401, End: 375}, // 23:21 - 06:15
		"B": {Start: 375, End: 885},  // 06:15 - 14:45
		"C": {Start: 885, End: 1401}, // 14:45 - 23:21
		"X": {Start: 375, End: 963},  // 06:15 - 16:03
		"Y": {Start: 963, End: 83},   // 16:03 - 01:23
	}
}

// Calendar maps clock labels to chronological ordinals per shift.
type Calendar struct {
	windows map[models.ShiftCode]Window
	order   []models.ShiftCode
}

// NewCalendar builds a calendar from the supplied windows. A nil map yields the site defaults.
func NewCalendar(windows map[models.ShiftCode]Window, order []models.ShiftCode) *Calendar {
	if windows == nil {
		windows = DefaultWindows()
	}
	if len(order) == 0 {
		order = []models.ShiftCode{"A", "B", "C", "X", "Y"}
	}
	copied := make(map[models.ShiftCode]Window, len(windows))
	for code, w := range windows {
		copied[code] = w
	}
	return &Calendar{windows: copied, order: append([]models.ShiftCode(nil), order...)}
}

// Default returns a calendar with the site default windows.
func Default() *Calendar {
	return NewCalendar(nil, nil)
}

// Window returns the window of a shift code.
func (c *Calendar) Window(code models.ShiftCode) (Window, bool) {
	w, ok := c.windows[code]
	return w, ok
}

// Shifts lists the configured shift codes in display order.
func (c *Calendar) Shifts() []models.ShiftCode {
	return append([]models.ShiftCode(nil), c.order...)
}

// AdjustedMinutes converts an "HH:MM" label of a record belonging to code into an ordinal whose
// numeric order follows real chronology across midnight for that shift. Malformed labels yield 0.
func (c *Calendar) AdjustedMinutes(label string, code models.ShiftCode) int {
	m, ok := ParseClock(label)
	if !ok {
		return 0
	}

	w, known := c.windows[code]
	if !known {
		return m
	}

	if !w.Wraps() {
		if w.Contains(m) {
			return m
		}
		return m + minutesPerDay
	}

	switch {
	case m >= w.Start:
		return m
	case m <= w.End:
		return m + minutesPerDay
	default:
		return m + 2*minutesPerDay
	}
}

// Contains reports whether the clock time of t falls inside the window of code.
func (c *Calendar) Contains(code models.ShiftCode, t time.Time) bool {
	w, ok := c.windows[code]
	if !ok {
		return false
	}
	return w.Contains(minuteOfDay(t))
}

// Active lists the shifts whose window contains t, in display order.
func (c *Calendar) Active(t time.Time) []models.ShiftCode {
	var active []models.ShiftCode
	for _, code := range c.order {
		if c.Contains(code, t) {
			active = append(active, code)
		}
	}
	return active
}

// CoarseOrdinal orders clock labels without shift identity: 00:00 through 01:23 sort after the
// rest of the day. Malformed labels yield 0.
func CoarseOrdinal(label string) int {
	m, ok := ParseClock(label)
	if !ok {
		return 0
	}
	return coarse(m)
}

// CoarseOrdinalOf applies CoarseOrdinal to the time-of-day of t.
func CoarseOrdinalOf(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	return coarse(minuteOfDay(t))
}

func coarse(m int) int {
	if m <= lateNightCutoff {
		return m + minutesPerDay
	}
	return m
}

// ParseClock parses "HH:MM" into minutes past midnight.
func ParseClock(label string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(label), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes past midnight as "HH:MM".
func FormatClock(m int) string {
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return twoDigits(m/60) + ":" + twoDigits(m%60)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
