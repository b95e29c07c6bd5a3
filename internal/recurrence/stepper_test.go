package recurrence

import (
	"testing"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

func TestDailyStepper_Next(t *testing.T) {
	tests := []struct {
		name string
		date core.Date
		want core.Date
	}{
		{
			name: "plain day",
			date: core.NewDate(2025, 3, 10),
			want: core.NewDate(2025, 3, 11),
		},
		{
			name: "month boundary",
			date: core.NewDate(2025, 1, 31),
			want: core.NewDate(2025, 2, 1),
		},
		{
			name: "year boundary",
			date: core.NewDate(2024, 12, 31),
			want: core.NewDate(2025, 1, 1),
		},
		{
			name: "leap day",
			date: core.NewDate(2024, 2, 28),
			want: core.NewDate(2024, 2, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyStepper{}.Next(tt.date, 0, -1)
			if !got.Equal(tt.want.Time) {
				t.Errorf("Next(%s) = %s, want %s", tt.date.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestWeeklyStepper_Next(t *testing.T) {
	tests := []struct {
		name      string
		date      core.Date
		dayOfWeek int
		want      core.Date
	}{
		{
			name:      "no anchor advances seven days",
			date:      core.NewDate(2025, 3, 10), // Monday
			dayOfWeek: -1,
			want:      core.NewDate(2025, 3, 17),
		},
		{
			name:      "already on anchor weekday",
			date:      core.NewDate(2025, 3, 10), // Monday
			dayOfWeek: 1,                         // Monday
			want:      core.NewDate(2025, 3, 17),
		},
		{
			name:      "realigns forward onto anchor",
			date:      core.NewDate(2025, 3, 10), // Monday
			dayOfWeek: 3,                         // Wednesday
			want:      core.NewDate(2025, 3, 19),
		},
		{
			name:      "anchor earlier in week wraps forward",
			date:      core.NewDate(2025, 3, 12), // Wednesday
			dayOfWeek: 1,                         // Monday
			want:      core.NewDate(2025, 3, 24),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeeklyStepper{}.Next(tt.date, 0, tt.dayOfWeek)
			if !got.Equal(tt.want.Time) {
				t.Errorf("Next(%s, dow=%d) = %s, want %s",
					tt.date.Format("2006-01-02"), tt.dayOfWeek, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
			if !got.After(tt.date.Time) {
				t.Errorf("Next must be strictly after the input date")
			}
		})
	}
}

func TestMonthlyStepper_Next(t *testing.T) {
	tests := []struct {
		name       string
		date       core.Date
		dayOfMonth int
		want       core.Date
	}{
		{
			name:       "plain month advance",
			date:       core.NewDate(2025, 3, 15),
			dayOfMonth: 15,
			want:       core.NewDate(2025, 4, 15),
		},
		{
			name:       "anchor 31 clamps to february",
			date:       core.NewDate(2025, 1, 31),
			dayOfMonth: 31,
			want:       core.NewDate(2025, 2, 28),
		},
		{
			name:       "anchor 31 clamps to leap february",
			date:       core.NewDate(2024, 1, 31),
			dayOfMonth: 31,
			want:       core.NewDate(2024, 2, 29),
		},
		{
			name:       "anchor recovers after short month",
			date:       core.NewDate(2025, 2, 28),
			dayOfMonth: 31,
			want:       core.NewDate(2025, 3, 31),
		},
		{
			name:       "no anchor keeps current day",
			date:       core.NewDate(2025, 4, 10),
			dayOfMonth: 0,
			want:       core.NewDate(2025, 5, 10),
		},
		{
			name:       "year rollover",
			date:       core.NewDate(2025, 12, 5),
			dayOfMonth: 5,
			want:       core.NewDate(2026, 1, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyStepper{}.Next(tt.date, tt.dayOfMonth, -1)
			if !got.Equal(tt.want.Time) {
				t.Errorf("Next(%s, dom=%d) = %s, want %s",
					tt.date.Format("2006-01-02"), tt.dayOfMonth, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestYearlyStepper_Next(t *testing.T) {
	tests := []struct {
		name string
		date core.Date
		want core.Date
	}{
		{
			name: "plain year advance",
			date: core.NewDate(2025, 6, 15),
			want: core.NewDate(2026, 6, 15),
		},
		{
			name: "leap day clamps to feb 28",
			date: core.NewDate(2024, 2, 29),
			want: core.NewDate(2025, 2, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearlyStepper{}.Next(tt.date, 0, -1)
			if !got.Equal(tt.want.Time) {
				t.Errorf("Next(%s) = %s, want %s", tt.date.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestGetStepper(t *testing.T) {
	for _, freq := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetStepper(freq); err != nil {
			t.Errorf("GetStepper(%s) unexpected error: %v", freq, err)
		}
	}
	if _, err := GetStepper("fortnightly"); err == nil {
		t.Error("GetStepper with unknown frequency should fail")
	}
}

func TestNextOccurrence_UnknownFrequency(t *testing.T) {
	if _, err := NextOccurrence(core.NewDate(2025, 1, 1), "hourly", 0, -1); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
