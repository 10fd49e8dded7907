// Package poller runs the cooperative polling scheduler: one goroutine per
// active task, a single control loop that owns all task bookkeeping, and a
// command channel (AddTask/RemoveTask/UpdateTask/EnableTask/GetTaskStatus/
// ListTasks/Shutdown) as the only way to mutate scheduler state.
package poller

import (
	"time"

	"github.com/google/uuid"

	"github.com/netfleet/netfleet/internal/snmp"
)

// PollingTask describes one recurring SNMP poll against a target.
type PollingTask struct {
	ID       string
	NodeID   uuid.UUID
	Target   snmp.SessionConfig
	OIDs     []string
	Interval time.Duration
	Enabled  bool
}

// PollingResult is the outcome of a single poll attempt.
type PollingResult struct {
	TaskID    string
	NodeID    uuid.UUID
	Target    string
	Success   bool
	Values    []snmp.OIDValue
	Err       error
	Timestamp time.Time
	Duration  time.Duration
}

// TaskStatus is the control loop's view of one task, returned by
// GetTaskStatus and ListTasks.
type TaskStatus struct {
	Task                PollingTask
	ConsecutiveFailures int
	LastResult          *PollingResult
	LastSuccess         time.Time
	NextPollTime        time.Time
	DisabledAt          time.Time
}

// backoffInterval implements interval * 2^min(failures,5): each consecutive
// failure doubles the wait, capped at a 32x multiplier so a persistently
// dead target still gets polled occasionally rather than backing off
// forever.
func backoffInterval(base time.Duration, failures int) time.Duration {
	capped := failures
	if capped > 5 {
		capped = 5
	}
	return base * time.Duration(uint(1)<<uint(capped))
}
