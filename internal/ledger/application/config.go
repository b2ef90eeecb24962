package application

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	ledger "restobill/internal/ledger/domain"
)

// ShiftConfig defines one shift of the schedule.
type ShiftConfig struct {
	Name      string `yaml:"name"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	RollsOver bool   `yaml:"rolls_over"`
}

// AnchorConfig defines the balance chain anchor.
type AnchorConfig struct {
	Instant string `yaml:"instant"`
	Balance string `yaml:"balance"`
}

// ScheduleConfig defines the day-close schedule.
type ScheduleConfig struct {
	DailyAt string `yaml:"daily_at"`
}

// Config defines ledger service configuration.
type Config struct {
	Timezone    string         `yaml:"timezone"`
	Shifts      []ShiftConfig  `yaml:"shifts"`
	Anchor      AnchorConfig   `yaml:"anchor"`
	TopN        int            `yaml:"top_n"`
	RankKey     string         `yaml:"rank_key"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	StorageRoot string         `yaml:"storage_root"`
}

// LoadConfig loads config from yaml or env. The default shift schedule keeps
// the traditional morning and night service blocks and covers the quiet early
// hours with an explicit closed shift so the day partitions without gaps.
func LoadConfig() (Config, error) {
	cfg := Config{
		Timezone:    getenvDefault("RESTOBILL_TIMEZONE", "Asia/Kolkata"),
		TopN:        getenvIntDefault("RESTOBILL_TOP_N", 10),
		RankKey:     getenvDefault("RESTOBILL_RANK_KEY", ""),
		StorageRoot: getenvDefault("RESTOBILL_STORAGE_ROOT", filepath.FromSlash("var/reports/restobill")),
	}

	if path := os.Getenv("RESTOBILL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if len(cfg.Shifts) == 0 {
		cfg.Shifts = []ShiftConfig{
			{Name: "Morning", Start: "07:00", End: "16:00"},
			{Name: "Night", Start: "16:00", End: "02:00", RollsOver: true},
			{Name: "Closed", Start: "02:00", End: "07:00"},
		}
	}
	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("RESTOBILL_DAY_CLOSE_AT", "07:30")
	}
	if cfg.StorageRoot == "" {
		return cfg, errors.New("ledger: storage root required")
	}
	return cfg, nil
}

// BuildRankKey validates the configured item ranking key. Empty config keeps
// the revenue ordering.
func (c Config) BuildRankKey() (ledger.RankKey, error) {
	return ledger.ParseRankKey(c.RankKey)
}

// Location resolves the configured business timezone.
func (c Config) Location() (*time.Location, error) {
	return ledger.LoadTimezone(c.Timezone)
}

// BuildSchedule converts the configured shifts into a validated schedule.
func (c Config) BuildSchedule() (ledger.Schedule, error) {
	shifts := make([]ledger.ShiftDefinition, 0, len(c.Shifts))
	for _, shift := range c.Shifts {
		start, err := ledger.ParseTimeOfDay(shift.Start)
		if err != nil {
			return ledger.Schedule{}, fmt.Errorf("shift %q start: %w", shift.Name, err)
		}
		end, err := ledger.ParseTimeOfDay(shift.End)
		if err != nil {
			return ledger.Schedule{}, fmt.Errorf("shift %q end: %w", shift.Name, err)
		}
		shifts = append(shifts, ledger.ShiftDefinition{
			Name:      shift.Name,
			Start:     start,
			End:       end,
			RollsOver: shift.RollsOver,
		})
	}
	return ledger.NewSchedule(shifts)
}

// BuildAnchor converts the configured anchor. An empty anchor means the chain
// starts at zero before the earliest recorded event.
func (c Config) BuildAnchor() (ledger.Anchor, error) {
	var anchor ledger.Anchor
	if c.Anchor.Instant != "" {
		instant, err := time.Parse(time.RFC3339, c.Anchor.Instant)
		if err != nil {
			return ledger.Anchor{}, fmt.Errorf("ledger: anchor instant: %w", err)
		}
		anchor.Instant = instant.UTC()
	}
	if c.Anchor.Balance != "" {
		balance, err := decimal.NewFromString(c.Anchor.Balance)
		if err != nil {
			return ledger.Anchor{}, fmt.Errorf("ledger: anchor balance: %w", err)
		}
		anchor.Balance = balance
	}
	return anchor, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
