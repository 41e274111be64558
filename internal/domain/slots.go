package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinSlotDurationMinutes = 15
	MaxSlotDurationMinutes = 480
	MaxBreakMinutes        = 60

	defaultSlotCount     = 8
	defaultSlotStartHour = 9
)

// GenerateSlots tiles the working window [windowStart, windowEnd) on the given day
// into slots of slotDuration minutes separated by breakBetween minutes. Window
// bounds are times of day in "HH:MM" form. A slot that would extend past the window
// end is dropped; no partial slots are emitted. The result is not persisted.
func GenerateSlots(day time.Time, windowStart, windowEnd string, slotDuration, breakBetween int) ([]TimeSlot, error) {
	if slotDuration < MinSlotDurationMinutes || slotDuration > MaxSlotDurationMinutes {
		return nil, fmt.Errorf("slot_duration must be between %d and %d minutes", MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if breakBetween < 0 || breakBetween > MaxBreakMinutes {
		return nil, fmt.Errorf("break_time must be between 0 and %d minutes", MaxBreakMinutes)
	}

	start, err := AtTimeOfDay(day, windowStart)
	if err != nil {
		return nil, errors.New("invalid start_time")
	}
	end, err := AtTimeOfDay(day, windowEnd)
	if err != nil {
		return nil, errors.New("invalid end_time")
	}
	if !end.After(start) {
		return nil, errors.New("end_time must be after start_time")
	}

	duration := time.Duration(slotDuration) * time.Minute
	step := duration + time.Duration(breakBetween)*time.Minute
	date := DateOf(day)

	out := make([]TimeSlot, 0, int(end.Sub(start)/step)+1)
	for cursor := start; !cursor.Add(duration).After(end); cursor = cursor.Add(step) {
		out = append(out, TimeSlot{
			Day:       date,
			StartTime: cursor,
			EndTime:   cursor.Add(duration),
			Status:    SlotStatusAvailable,
		})
	}
	return out, nil
}

// DefaultDaySlots is the fixed-grid degenerate mode used when no explicit window is
// supplied: eight one-hour slots starting at 09:00.
func DefaultDaySlots(day time.Time) []TimeSlot {
	date := DateOf(day)
	start := date.Add(defaultSlotStartHour * time.Hour)
	out := make([]TimeSlot, 0, defaultSlotCount)
	for i := 0; i < defaultSlotCount; i++ {
		s := start.Add(time.Duration(i) * time.Hour)
		out = append(out, TimeSlot{
			Day:       date,
			StartTime: s,
			EndTime:   s.Add(time.Hour),
			Status:    SlotStatusAvailable,
		})
	}
	return out
}

// AtTimeOfDay resolves an "HH:MM" time of day on the given calendar date.
func AtTimeOfDay(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	d := DateOf(day)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
