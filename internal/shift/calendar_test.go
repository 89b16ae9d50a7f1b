package shift

import (
	"testing"
	"time"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		label string
		want  int
		ok    bool
	}{
		{"00:00", 0, true},
		{"06:15", 375, true},
		{"23:59", 1439, true},
		{" 7:05 ", 425, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"", 0, false},
		{"noon", 0, false},
		{"12", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseClock(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseClock(%q) = %d, %v; want %d, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAdjustedMinutesShiftY(t *testing.T) {
	cal := Default()

	evening := cal.AdjustedMinutes("17:00", "Y")
	afterMidnight := cal.AdjustedMinutes("00:30", "Y")
	lastSlot := cal.AdjustedMinutes("01:23", "Y")

	if !(evening < afterMidnight && afterMidnight < lastSlot) {
		t.Fatalf("expected 17:00 < 00:30 < 01:23 for Y, got %d, %d, %d", evening, afterMidnight, lastSlot)
	}
	if got := cal.AdjustedMinutes("16:03", "Y"); got != 963 {
		t.Errorf("16:03 opens shift Y, got %d", got)
	}
	if got := cal.AdjustedMinutes("10:00", "Y"); got != 600+2*minutesPerDay {
		t.Errorf("10:00 is outside Y and must sort last, got %d", got)
	}
}

func TestAdjustedMinutesShiftA(t *testing.T) {
	cal := Default()

	order := []string{"23:21", "23:59", "00:00", "03:00", "06:15", "12:00"}
	prev := -1
	for _, label := range order {
		got := cal.AdjustedMinutes(label, "A")
		if got <= prev {
			t.Fatalf("shift A ordering broken at %s: %d <= %d", label, got, prev)
		}
		prev = got
	}
}

func TestAdjustedMinutesNonWrapping(t *testing.T) {
	cal := Default()

	tests := []struct {
		label string
		code  models.ShiftCode
		want  int
	}{
		{"06:15", "B", 375},
		{"14:45", "B", 885},
		{"14:46", "B", 886 + minutesPerDay},
		{"06:14", "B", 374 + minutesPerDay},
		{"14:45", "C", 885},
		{"23:21", "C", 1401},
		{"23:22", "C", 1402 + minutesPerDay},
		{"16:03", "X", 963},
		{"16:04", "X", 964 + minutesPerDay},
		{"09:30", "Z", 570},
		{"bad", "B", 0},
		{"", "Y", 0},
	}

	for _, tt := range tests {
		if got := cal.AdjustedMinutes(tt.label, tt.code); got != tt.want {
			t.Errorf("AdjustedMinutes(%q, %s) = %d, want %d", tt.label, tt.code, got, tt.want)
		}
	}
}

func TestCoarseOrdinal(t *testing.T) {
	if CoarseOrdinal("00:30") != 1470 {
		t.Fatalf("00:30 should map to 1470, got %d", CoarseOrdinal("00:30"))
	}
	if CoarseOrdinal("16:03") != 963 {
		t.Fatalf("16:03 should map to 963, got %d", CoarseOrdinal("16:03"))
	}
	if !(CoarseOrdinal("00:30") > CoarseOrdinal("16:03")) {
		t.Fatal("00:30 must sort after 16:03")
	}
	if CoarseOrdinal("01:23") != 83+minutesPerDay {
		t.Errorf("01:23 is inside the late-night range")
	}
	if CoarseOrdinal("01:24") != 84 {
		t.Errorf("01:24 is outside the late-night range")
	}
	if CoarseOrdinal("garbage") != 0 {
		t.Errorf("malformed labels map to 0")
	}

	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2025, 3, 10, 0, 45, 0, 0, loc)
	if CoarseOrdinalOf(ts) != 45+minutesPerDay {
		t.Errorf("CoarseOrdinalOf(00:45) = %d", CoarseOrdinalOf(ts))
	}
	if CoarseOrdinalOf(time.Time{}) != 0 {
		t.Errorf("zero time maps to 0")
	}
}

func TestActiveShifts(t *testing.T) {
	cal := Default()
	loc := time.UTC

	tests := []struct {
		clock string
		want  []models.ShiftCode
	}{
		{"23:30", []models.ShiftCode{"A", "Y"}},
		{"06:15", []models.ShiftCode{"A", "B", "X"}},
		{"10:00", []models.ShiftCode{"B", "X"}},
		{"15:00", []models.ShiftCode{"C", "X"}},
		{"20:00", []models.ShiftCode{"C", "Y"}},
		{"01:00", []models.ShiftCode{"A", "Y"}},
	}

	for _, tt := range tests {
		m, _ := ParseClock(tt.clock)
		at := time.Date(2025, 1, 1, m/60, m%60, 0, 0, loc)
		got := cal.Active(at)
		if len(got) != len(tt.want) {
			t.Errorf("Active(%s) = %v, want %v", tt.clock, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Active(%s) = %v, want %v", tt.clock, got, tt.want)
				break
			}
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(375); got != "06:15" {
		t.Errorf("FormatClock(375) = %s", got)
	}
	if got := FormatClock(1470); got != "00:30" {
		t.Errorf("FormatClock(1470) = %s", got)
	}
}
