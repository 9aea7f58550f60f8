package interfaces

import "time"

// SchedulerStatus is a point-in-time view of the insight scheduler.
type SchedulerStatus struct {
	Running      bool
	Bootstrapped bool
	LastTickAt   *time.Time
	LastTickErr  string
	TicksRun     int64
}

// SchedulerService drives periodic insight regeneration.
type SchedulerService interface {
	// Start begins the poll loop. Safe to call once.
	Start() error

	// Stop halts the loop and waits for in-flight work to finish.
	Stop() error

	// TriggerTickNow runs one scheduler pass immediately.
	TriggerTickNow() error

	// IsRunning returns true if the scheduler is active.
	IsRunning() bool

	// Status returns the current scheduler state.
	Status() SchedulerStatus
}
