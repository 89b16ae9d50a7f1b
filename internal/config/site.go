package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/shift"
)

// SiteConfig describes the plant: its production lines, shift windows and local time zone.
type SiteConfig struct {
	Timezone string        `yaml:"timezone"`
	Lines    []string      `yaml:"lines"`
	Shifts   []ShiftWindow `yaml:"shifts"`
}

// ShiftWindow is one shift entry of the site file, with "HH:MM" edges.
type ShiftWindow struct {
	Code  string `yaml:"code"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// DefaultSite mirrors the plant the dashboard was first deployed to.
func DefaultSite() SiteConfig {
	return SiteConfig{
		Timezone: "America/Sao_Paulo",
		Lines:    []string{"A", "B", "C", "G", "H", "J", "K", "L", "M", "N", "VR"},
		Shifts: []ShiftWindow{
			{Code: "A", Start: "23:21", End: "06:15"},
			{Code: "B", Start: "06:15", End: "14:45"},
			{Code: "C", Start: "14:45", End: "23:21"},
			{Code: "X", Start: "06:15", End: "16:03"},
			{Code: "Y", Start: "16:03", End: "01:23"},
		},
	}
}

// LoadSite reads the site file at path. An empty path yields DefaultSite.
func LoadSite(path string) (SiteConfig, error) {
	if path == "" {
		return DefaultSite(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("read site config %s: %w", path, err)
	}

	site := DefaultSite()
	var parsed SiteConfig
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return SiteConfig{}, fmt.Errorf("parse site config %s: %w", path, err)
	}

	if parsed.Timezone != "" {
		site.Timezone = parsed.Timezone
	}
	if len(parsed.Lines) > 0 {
		site.Lines = parsed.Lines
	}
	if len(parsed.Shifts) > 0 {
		site.Shifts = parsed.Shifts
	}

	if err := site.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return site, nil
}

// Validate checks line codes, shift windows and the time zone.
func (s SiteConfig) Validate() error {
	if len(s.Lines) == 0 {
		return errors.New("site config must list at least one line")
	}
	seen := map[string]bool{}
	for _, line := range s.Lines {
		if line == "" {
			return errors.New("site config contains an empty line code")
		}
		if seen[line] {
			return fmt.Errorf("site config lists line %s twice", line)
		}
		seen[line] = true
	}

	if len(s.Shifts) == 0 {
		return errors.New("site config must list at least one shift")
	}
	codes := map[string]bool{}
	for _, sh := range s.Shifts {
		if sh.Code == "" {
			return errors.New("site config contains a shift without code")
		}
		if codes[sh.Code] {
			return fmt.Errorf("site config lists shift %s twice", sh.Code)
		}
		codes[sh.Code] = true
		if _, ok := shift.ParseClock(sh.Start); !ok {
			return fmt.Errorf("shift %s has invalid start %q", sh.Code, sh.Start)
		}
		if _, ok := shift.ParseClock(sh.End); !ok {
			return fmt.Errorf("shift %s has invalid end %q", sh.Code, sh.End)
		}
	}

	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", s.Timezone, err)
	}
	return nil
}

// Location returns the site time zone. Validate must have succeeded.
func (s SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LineCodes returns the known production lines in display order.
func (s SiteConfig) LineCodes() []models.LineCode {
	out := make([]models.LineCode, len(s.Lines))
	for i, line := range s.Lines {
		out[i] = models.LineCode(line)
	}
	return out
}

// IsKnownLine reports whether code is one of the site's lines.
func (s SiteConfig) IsKnownLine(code models.LineCode) bool {
	for _, line := range s.Lines {
		if models.LineCode(line) == code {
			return true
		}
	}
	return false
}

// Calendar builds the shift calendar from the configured windows.
func (s SiteConfig) Calendar() *shift.Calendar {
	windows := make(map[models.ShiftCode]shift.Window, len(s.Shifts))
	order := make([]models.ShiftCode, 0, len(s.Shifts))
	for _, sh := range s.Shifts {
		start, _ := shift.ParseClock(sh.Start)
		end, _ := shift.ParseClock(sh.End)
		code := models.ShiftCode(sh.Code)
		windows[code] = shift.Window{Start: start, End: end}
		order = append(order, code)
	}
	return shift.NewCalendar(windows, order)
}
