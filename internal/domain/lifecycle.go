package domain

import "time"

// LifecycleState is the tag of an artwork lifecycle
type LifecycleState string

const (
	LifecycleActive LifecycleState = "active"
	LifecycleBurned LifecycleState = "burned"
)

// Lifecycle is Active or Burned{at}
// BurnedAt is set only for LifecycleBurned.
type Lifecycle struct {
	State    LifecycleState
	BurnedAt *time.Time
}

// Active returns the lifecycle of a live artwork
func Active() Lifecycle {
	return Lifecycle{State: LifecycleActive}
}

// Burned returns the lifecycle of an artwork retired at the given time
func Burned(at time.Time) Lifecycle {
	return Lifecycle{State: LifecycleBurned, BurnedAt: &at}
}

// IsBurned reports whether the lifecycle is Burned
func (l Lifecycle) IsBurned() bool {
	return l.State == LifecycleBurned
}
