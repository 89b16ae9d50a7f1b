package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("IDENTITY_API_KEY", "key")
	t.Setenv("DELETE_CONFIRMATION_SECRET", "apagar")
	t.Setenv("SITE_CONFIG_PATH", "")
	t.Setenv("TIMEZONE", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MongoDB.Collection != "producao_hora" {
		t.Errorf("collection = %s", cfg.MongoDB.Collection)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("invalid durations fall back to the default, got %v", cfg.Session.TTL)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if len(cfg.Site.LineCodes()) != 11 {
		t.Errorf("default site has 11 lines, got %d", len(cfg.Site.LineCodes()))
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DELETE_CONFIRMATION_SECRET", "")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error when the confirmation secret is missing")
	}
}

func TestLoadSiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	content := `timezone: UTC
lines: [L1, L2]
shifts:
  - code: "1"
    start: "22:00"
    end: "06:00"
  - code: "2"
    start: "06:00"
    end: "14:00"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("LoadSite failed: %v", err)
	}
	if site.Location() != time.UTC {
		t.Errorf("location = %v", site.Location())
	}
	if !site.IsKnownLine("L2") || site.IsKnownLine("A") {
		t.Errorf("lines = %v", site.Lines)
	}

	cal := site.Calendar()
	w, ok := cal.Window(models.ShiftCode("1"))
	if !ok || !w.Wraps() || w.Start != 22*60 || w.End != 6*60 {
		t.Errorf("window 1 = %+v, %v", w, ok)
	}
	if got := cal.Shifts(); len(got) != 2 || got[0] != "1" {
		t.Errorf("shift order = %v", got)
	}
}

func TestSiteValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SiteConfig)
	}{
		{"duplicate line", func(s *SiteConfig) { s.Lines = []string{"A", "A"} }},
		{"bad clock", func(s *SiteConfig) { s.Shifts[0].End = "25:00" }},
		{"bad timezone", func(s *SiteConfig) { s.Timezone = "Mars/Olympus" }},
		{"no shifts", func(s *SiteConfig) { s.Shifts = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := DefaultSite()
			tt.mutate(&site)
			if err := site.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := DefaultSite().Validate(); err != nil {
		t.Fatalf("default site must be valid: %v", err)
	}
}
