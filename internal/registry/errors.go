package registry

import "errors"

// Error taxonomy returned by the registry. Staleness, cooldown and
// condition failures are routine outcomes callers are expected to
// re-poll on, not faults.
var (
	// ErrNotFound means no agent exists under the given id
	ErrNotFound = errors.New("agent not found")

	// ErrAlreadyExists means an agent with this id is already registered
	ErrAlreadyExists = errors.New("agent already exists")

	// ErrUnauthorized means the caller is not the agent's owner
	ErrUnauthorized = errors.New("caller is not the agent owner")

	// ErrInvalidStrategy means the strategy failed validation
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrAgentInactive means the agent has been deactivated
	ErrAgentInactive = errors.New("agent is inactive")

	// ErrPriceUnavailable means the oracle reading is missing or stale
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrCooldownNotExpired means the cooldown window since the last
	// execution has not elapsed
	ErrCooldownNotExpired = errors.New("cooldown not expired")

	// ErrConditionNotMet means the trigger comparison failed
	ErrConditionNotMet = errors.New("trigger condition not met")
)
