package domain

import "testing"

func TestAppointmentStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from AppointmentStatus
		to   AppointmentStatus
		want bool
	}{
		{"pending to confirmed", AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{"pending to cancelled", AppointmentStatusPending, AppointmentStatusCancelled, true},
		{"pending to completed", AppointmentStatusPending, AppointmentStatusCompleted, true},
		{"confirmed to cancelled", AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{"confirmed to completed", AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{"confirmed back to pending", AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{"cancelled is terminal", AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{"completed is terminal", AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{"no self transition", AppointmentStatusPending, AppointmentStatusPending, false},
		{"unknown target", AppointmentStatusPending, AppointmentStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("CanTransitionTo(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestAppointmentStatusTerminal(t *testing.T) {
	if AppointmentStatusPending.Terminal() || AppointmentStatusConfirmed.Terminal() {
		t.Fatalf("pending/confirmed must not be terminal")
	}
	if !AppointmentStatusCancelled.Terminal() || !AppointmentStatusCompleted.Terminal() {
		t.Fatalf("cancelled/completed must be terminal")
	}
}
