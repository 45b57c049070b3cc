package registry

import "time"

// MayExecute reports whether enough time has elapsed since the last
// execution to permit another: now >= lastExecuted + cooldown.
// A zero lastExecuted (never executed) always permits execution.
// Pure function, no side effects.
func MayExecute(lastExecuted time.Time, cooldown time.Duration, now time.Time) bool {
	if lastExecuted.IsZero() {
		return true
	}
	return !now.Before(lastExecuted.Add(cooldown))
}
