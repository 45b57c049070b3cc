package registry

import (
	"testing"
	"time"
)

func TestMayExecute(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cooldown := time.Hour

	tests := []struct {
		name         string
		lastExecuted time.Time
		now          time.Time
		want         bool
	}{
		{"never executed", time.Time{}, base, true},
		{"one second before expiry", base, base.Add(cooldown - time.Second), false},
		{"exactly at expiry", base, base.Add(cooldown), true},
		{"after expiry", base, base.Add(cooldown + time.Second), true},
		{"immediately after execution", base, base, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MayExecute(tt.lastExecuted, cooldown, tt.now)
			if got != tt.want {
				t.Errorf("MayExecute(%v, %v, %v) = %v, want %v",
					tt.lastExecuted, cooldown, tt.now, got, tt.want)
			}
		})
	}
}

func TestMayExecute_ZeroCooldown(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if !MayExecute(base, 0, base) {
		t.Error("zero cooldown should permit immediate re-execution")
	}
}
