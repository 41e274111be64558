package domain

import (
	"testing"
	"time"
)

func TestGenerateSlots_Validation(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		start, end   string
		duration     int
		breakBetween int
		wantErr      string
	}{
		{
			name:     "duration below minimum",
			start:    "09:00",
			end:      "17:00",
			duration: 10,
			wantErr:  "slot_duration must be between 15 and 480 minutes",
		},
		{
			name:     "duration above maximum",
			start:    "09:00",
			end:      "17:00",
			duration: 481,
			wantErr:  "slot_duration must be between 15 and 480 minutes",
		},
		{
			name:         "negative break",
			start:        "09:00",
			end:          "17:00",
			duration:     60,
			breakBetween: -1,
			wantErr:      "break_time must be between 0 and 60 minutes",
		},
		{
			name:     "malformed start time",
			start:    "9am",
			end:      "17:00",
			duration: 60,
			wantErr:  "invalid start_time",
		},
		{
			name:     "malformed end time",
			start:    "09:00",
			end:      "25:61",
			duration: 60,
			wantErr:  "invalid end_time",
		},
		{
			name:     "window end before start",
			start:    "17:00",
			end:      "09:00",
			duration: 60,
			wantErr:  "end_time must be after start_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSlots(day, tt.start, tt.end, tt.duration, tt.breakBetween)
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Error() != tt.wantErr {
				t.Fatalf("error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGenerateSlots_FullDayHourlyGrid(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(day, "09:00", "17:00", 60, 0)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("slots = %d, want 8", len(slots))
	}

	wantFirst := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !slots[0].StartTime.Equal(wantFirst) {
		t.Fatalf("first start = %v, want %v", slots[0].StartTime, wantFirst)
	}
	wantLast := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	if !slots[7].StartTime.Equal(wantLast) || !slots[7].EndTime.Equal(wantLast.Add(time.Hour)) {
		t.Fatalf("last slot = [%v, %v), want [%v, %v)", slots[7].StartTime, slots[7].EndTime, wantLast, wantLast.Add(time.Hour))
	}
}

func TestGenerateSlots_BreakBetweenSlotsAndNoPartialSlot(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(day, "09:00", "12:30", 60, 15)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(slots))
	}

	wantStarts := []time.Time{
		time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
	}
	for i, want := range wantStarts {
		if !slots[i].StartTime.Equal(want) {
			t.Fatalf("slot %d start = %v, want %v", i, slots[i].StartTime, want)
		}
		if !slots[i].EndTime.Equal(want.Add(time.Hour)) {
			t.Fatalf("slot %d end = %v, want %v", i, slots[i].EndTime, want.Add(time.Hour))
		}
	}
}

func TestGenerateSlots_Properties(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		start, end   string
		duration     int
		breakBetween int
	}{
		{"09:00", "17:00", 60, 0},
		{"09:00", "17:00", 30, 15},
		{"08:30", "12:00", 45, 5},
		{"09:00", "09:15", 15, 0},
		{"00:00", "23:45", 480, 60},
	}

	for _, tc := range cases {
		slots, err := GenerateSlots(day, tc.start, tc.end, tc.duration, tc.breakBetween)
		if err != nil {
			t.Fatalf("GenerateSlots(%s,%s,%d,%d) error: %v", tc.start, tc.end, tc.duration, tc.breakBetween, err)
		}
		windowEnd, err := AtTimeOfDay(day, tc.end)
		if err != nil {
			t.Fatalf("atTimeOfDay error: %v", err)
		}

		duration := time.Duration(tc.duration) * time.Minute
		step := duration + time.Duration(tc.breakBetween)*time.Minute
		for i, s := range slots {
			if got := s.EndTime.Sub(s.StartTime); got != duration {
				t.Fatalf("case %v slot %d length = %v, want %v", tc, i, got, duration)
			}
			if s.EndTime.After(windowEnd) {
				t.Fatalf("case %v slot %d extends past window end", tc, i)
			}
			if s.Status != SlotStatusAvailable {
				t.Fatalf("case %v slot %d status = %q", tc, i, s.Status)
			}
			if i == 0 {
				continue
			}
			if got := s.StartTime.Sub(slots[i-1].StartTime); got != step {
				t.Fatalf("case %v slot %d start gap = %v, want %v", tc, i, got, step)
			}
			if slots[i-1].EndTime.After(s.StartTime) {
				t.Fatalf("case %v slots %d and %d overlap", tc, i-1, i)
			}
		}
	}
}

func TestGenerateSlots_SlotExactlyFillingWindowIsKept(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(day, "09:00", "10:00", 60, 0)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
}

func TestDefaultDaySlots_FixedHourlyGrid(t *testing.T) {
	day := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	slots := DefaultDaySlots(day)
	if len(slots) != 8 {
		t.Fatalf("slots = %d, want 8", len(slots))
	}
	wantFirst := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !slots[0].StartTime.Equal(wantFirst) {
		t.Fatalf("first start = %v, want %v", slots[0].StartTime, wantFirst)
	}
	for i, s := range slots {
		if got := s.EndTime.Sub(s.StartTime); got != time.Hour {
			t.Fatalf("slot %d length = %v, want 1h", i, got)
		}
		if !s.Day.Equal(DateOf(day)) {
			t.Fatalf("slot %d day = %v, want %v", i, s.Day, DateOf(day))
		}
	}
}
