package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ledger "restobill/internal/ledger/domain"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("RESTOBILL_CONFIG", "")
	t.Setenv("RESTOBILL_TIMEZONE", "")
	t.Setenv("RESTOBILL_TOP_N", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %s", cfg.Timezone)
	}
	if cfg.TopN != 10 {
		t.Fatalf("expected top_n 10, got %d", cfg.TopN)
	}
	if len(cfg.Shifts) != 3 {
		t.Fatalf("expected 3 default shifts, got %d", len(cfg.Shifts))
	}
	schedule, err := cfg.BuildSchedule()
	if err != nil {
		t.Fatalf("default schedule invalid: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	windows := schedule.ResolveDay(ledger.Date{Year: 2024, Month: time.March, Day: 1}, loc)
	if len(windows) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(windows))
	}
}

func TestLoadConfig_YamlOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restobill.yaml")
	data := `timezone: Europe/Berlin
top_n: 5
shifts:
  - name: Day
    start: "06:00"
    end: "18:00"
  - name: Night
    start: "18:00"
    end: "06:00"
    rolls_over: true
anchor:
  instant: "2024-01-01T00:30:00Z"
  balance: "1500.50"
schedule:
  daily_at: "06:15"
storage_root: /tmp/reports
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RESTOBILL_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timezone != "Europe/Berlin" || cfg.TopN != 5 {
		t.Fatalf("yaml not applied: %s/%d", cfg.Timezone, cfg.TopN)
	}
	if cfg.Schedule.DailyAt != "06:15" {
		t.Fatalf("expected daily_at 06:15, got %s", cfg.Schedule.DailyAt)
	}
	anchor, err := cfg.BuildAnchor()
	if err != nil {
		t.Fatalf("anchor: %v", err)
	}
	if anchor.Balance.StringFixed(2) != "1500.50" {
		t.Fatalf("unexpected anchor balance %s", anchor.Balance)
	}
	if anchor.Instant.IsZero() {
		t.Fatal("expected anchor instant set")
	}
	if _, err := cfg.BuildSchedule(); err != nil {
		t.Fatalf("schedule: %v", err)
	}
}

func TestBuildSchedule_RejectsBadShift(t *testing.T) {
	cfg := Config{Shifts: []ShiftConfig{{Name: "Broken", Start: "7am", End: "16:00"}}}
	if _, err := cfg.BuildSchedule(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuildAnchor_EmptyIsZero(t *testing.T) {
	var cfg Config
	anchor, err := cfg.BuildAnchor()
	if err != nil {
		t.Fatalf("anchor: %v", err)
	}
	if !anchor.Instant.IsZero() || !anchor.Balance.IsZero() {
		t.Fatalf("expected zero anchor, got %+v", anchor)
	}
}
