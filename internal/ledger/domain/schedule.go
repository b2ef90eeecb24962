package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without date, in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an HH:MM wall-clock time.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidSchedule, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidSchedule, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: time of day %q", ErrInvalidSchedule, value)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ShiftDefinition is one named wall-clock interval of the business day.
// RollsOver is an explicit flag: a rolling shift ends on the next calendar
// date, it is never inferred from comparing Start and End.
type ShiftDefinition struct {
	Name      string
	Start     TimeOfDay
	End       TimeOfDay
	RollsOver bool
}

// Duration returns the shift length.
func (s ShiftDefinition) Duration() time.Duration {
	minutes := int(s.End) - int(s.Start)
	if s.RollsOver {
		minutes += 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

// Schedule is an ordered, gapless, non-overlapping sequence of shifts covering
// exactly 24 wall-clock hours. The last shift's end rolls into the first
// shift's start of the following date.
type Schedule struct {
	shifts []ShiftDefinition
}

// NewSchedule validates shift definitions once and returns a schedule.
// It fails with ErrInvalidSchedule when shifts overlap, leave a gap, carry an
// inconsistent rollover flag, or do not cover a full day.
func NewSchedule(shifts []ShiftDefinition) (Schedule, error) {
	if len(shifts) == 0 {
		return Schedule{}, fmt.Errorf("%w: no shifts", ErrInvalidSchedule)
	}

	seen := make(map[string]struct{}, len(shifts))
	rollovers := 0
	var total time.Duration
	for _, shift := range shifts {
		if strings.TrimSpace(shift.Name) == "" {
			return Schedule{}, fmt.Errorf("%w: unnamed shift", ErrInvalidSchedule)
		}
		if _, ok := seen[shift.Name]; ok {
			return Schedule{}, fmt.Errorf("%w: duplicate shift %q", ErrInvalidSchedule, shift.Name)
		}
		seen[shift.Name] = struct{}{}
		if shift.RollsOver != (shift.End <= shift.Start) {
			return Schedule{}, fmt.Errorf("%w: shift %q rollover flag disagrees with times %s-%s",
				ErrInvalidSchedule, shift.Name, shift.Start, shift.End)
		}
		if shift.RollsOver {
			rollovers++
		}
		total += shift.Duration()
	}
	if rollovers != 1 {
		return Schedule{}, fmt.Errorf("%w: expected exactly one midnight rollover, got %d", ErrInvalidSchedule, rollovers)
	}
	if total != 24*time.Hour {
		return Schedule{}, fmt.Errorf("%w: shifts cover %s, want 24h", ErrInvalidSchedule, total)
	}
	for i, shift := range shifts {
		next := shifts[(i+1)%len(shifts)]
		if shift.End != next.Start {
			return Schedule{}, fmt.Errorf("%w: gap or overlap between %q (ends %s) and %q (starts %s)",
				ErrInvalidSchedule, shift.Name, shift.End, next.Name, next.Start)
		}
	}

	copied := make([]ShiftDefinition, len(shifts))
	copy(copied, shifts)
	return Schedule{shifts: copied}, nil
}

// Shifts returns the shift definitions in schedule order.
func (s Schedule) Shifts() []ShiftDefinition {
	out := make([]ShiftDefinition, len(s.shifts))
	copy(out, s.shifts)
	return out
}

// Window is the absolute UTC instant range a shift resolves to on one
// calendar date. Half-open: Start inclusive, End exclusive.
type Window struct {
	ShiftName string    `json:"shift_name"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Contains reports whether an instant falls inside the half-open window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// ResolveDay returns the date's shift windows in schedule order.
//
// Each wall-clock boundary is localized with time.Date in the given location
// and converted to UTC. Local times skipped by a zone transition normalize
// forward, and ambiguous local times resolve to the offset time.Date selects;
// both rules are deterministic for a given zone database.
func (s Schedule) ResolveDay(date Date, loc *time.Location) []Window {
	windows := make([]Window, 0, len(s.shifts))
	dayOffset := 0
	for _, shift := range s.shifts {
		start := localize(date, dayOffset, shift.Start, loc)
		if shift.RollsOver {
			dayOffset++
		}
		end := localize(date, dayOffset, shift.End, loc)
		windows = append(windows, Window{ShiftName: shift.Name, Start: start, End: end})
	}
	return windows
}

// PreviousWindow returns the last shift window of the preceding date, the one
// whose closing balance opens the given date.
func (s Schedule) PreviousWindow(date Date, loc *time.Location) Window {
	previous := s.ResolveDay(date.AddDays(-1), loc)
	return previous[len(previous)-1]
}

// DaySpan returns the UTC instant range covered by all of the date's shifts.
func (s Schedule) DaySpan(date Date, loc *time.Location) Window {
	windows := s.ResolveDay(date, loc)
	return Window{
		ShiftName: "day",
		Start:     windows[0].Start,
		End:       windows[len(windows)-1].End,
	}
}

func localize(date Date, dayOffset int, tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day+dayOffset, tod.Hour(), tod.Minute(), 0, 0, loc).UTC()
}

// LoadTimezone resolves a timezone identifier, mapping unknown identifiers to
// ErrUnknownTimezone.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}
