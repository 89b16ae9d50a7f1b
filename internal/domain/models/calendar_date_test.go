package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCalendarDateOrdering(t *testing.T) {
	a := CalendarDate{Year: 2024, Month: time.December, Day: 31}
	b := CalendarDate{Year: 2025, Month: time.January, Day: 1}

	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Error("Before must order by year, month and day")
	}
	if a.MonthKey() != "2024-12" || b.String() != "2025-01-01" {
		t.Errorf("formatting: %s %s", a.MonthKey(), b)
	}
}

func TestDateOfUsesTimeLocation(t *testing.T) {
	site := time.FixedZone("site", -3*3600)
	utcLate := time.Date(2025, time.March, 11, 1, 30, 0, 0, time.UTC)

	if got := DateOf(utcLate.In(site)); got.Day != 10 {
		t.Errorf("01:30 UTC is still the 10th on site, got %s", got)
	}
}

func TestCalendarDateJSON(t *testing.T) {
	var payload struct {
		Day  CalendarDate `json:"day"`
		Zero CalendarDate `json:"zero"`
	}
	if err := json.Unmarshal([]byte(`{"day":"2025-03-10","zero":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Day.String() != "2025-03-10" || !payload.Zero.IsZero() {
		t.Errorf("unexpected %+v", payload)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"day":"2025-03-10","zero":null}` {
		t.Errorf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"day":"10/03/2025"}`), &payload); err == nil {
		t.Error("malformed dates must be rejected")
	}
}
