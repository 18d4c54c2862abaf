package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SlotLength = 120
	SlotStride = 30

	minutesPerDay = 24 * 60
)

// AvailabilityWindow is the weekly window a poster offers. Times are "HH:MM"
// in the platform location.
type AvailabilityWindow struct {
	Days      []time.Weekday `json:"days"`
	StartTime string         `json:"start_time"`
	EndTime   string         `json:"end_time"`
}

// Slot is a bookable range of minutes-of-day, [Start, End).
type Slot struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Slot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

func (s Slot) String() string {
	return FormatClock(s.Start) + "-" + FormatClock(s.End)
}

// HasDay reports whether the window is open on the given weekday.
func (w AvailabilityWindow) HasDay(day time.Weekday) bool {
	for _, d := range w.Days {
		if d == day {
			return true
		}
	}
	return false
}

// Validate rejects malformed input only. A window too short for any slot is
// accepted and simply derives no slots.
func (w AvailabilityWindow) Validate() error {
	for _, d := range w.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidWindow, d)
		}
	}
	for _, v := range []string{w.StartTime, w.EndTime} {
		if v == "" {
			continue
		}
		if _, err := ParseClock(v); err != nil {
			return err
		}
	}
	return nil
}

// DeriveSlots walks the window from StartTime in stride steps and returns every
// slot of the given length that fits entirely before EndTime, ordered by start.
//
// The result is day-independent: callers associate it with each day in Days.
// An empty Days or a missing bound yields no slots and no error. A window that
// is inverted or shorter than one slot yields ErrInvalidWindow, which callers
// should present as "no slots available".
func DeriveSlots(w AvailabilityWindow, length, stride int) ([]Slot, error) {
	if length <= 0 {
		length = SlotLength
	}
	if stride <= 0 {
		stride = SlotStride
	}
	if len(w.Days) == 0 || w.StartTime == "" || w.EndTime == "" {
		return []Slot{}, nil
	}

	start, err := ParseClock(w.StartTime)
	if err != nil {
		return []Slot{}, err
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return []Slot{}, err
	}
	if end <= start || end-start < length {
		return []Slot{}, fmt.Errorf("%w: %s-%s is shorter than %d minutes", ErrInvalidWindow, w.StartTime, w.EndTime, length)
	}

	seen := make(map[Slot]struct{})
	slots := make([]Slot, 0, (end-start-length)/stride+1)
	for t := start; t+length <= end; t += stride {
		slot := Slot{Start: t, End: t + length}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })
	return slots, nil
}

// SlotAt resolves a concrete start instant against the window. It returns the
// matching slot when startsAt falls on an open day at a derivable slot start.
func (w AvailabilityWindow) SlotAt(startsAt time.Time, loc *time.Location) (Slot, bool) {
	if loc == nil {
		loc = time.UTC
	}
	local := startsAt.In(loc)
	if !w.HasDay(local.Weekday()) {
		return Slot{}, false
	}
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return Slot{}, false
	}

	slots, err := DeriveSlots(w, SlotLength, SlotStride)
	if err != nil {
		return Slot{}, false
	}
	minute := local.Hour()*60 + local.Minute()
	for _, s := range slots {
		if s.Start == minute {
			return s, true
		}
	}
	return Slot{}, false
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(v string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidWindow, v)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidWindow, v)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("%w: malformed time %q", ErrInvalidWindow, v)
	}
	total := h*60 + m
	if h < 0 || m < 0 || m > 59 || total > minutesPerDay {
		return 0, fmt.Errorf("%w: time %q out of range", ErrInvalidWindow, v)
	}
	return total, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
