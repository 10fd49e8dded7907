package poller

import (
	"context"
	"sync"
	"time"

	"github.com/netfleet/netfleet/internal/fleeterrors"
	"github.com/netfleet/netfleet/internal/logging"
	"github.com/netfleet/netfleet/internal/snmp"
)

// sessionPoller is the narrow slice of *snmp.SessionManager the scheduler
// needs. Tests substitute a fake to exercise backoff and shutdown behavior
// without dialing real devices.
type sessionPoller interface {
	Get(ctx context.Context, cfg snmp.SessionConfig, oids []string) ([]snmp.OIDValue, error)
}

// reapMultiple is the number of health-check intervals a disabled task's
// bookkeeping survives, measured from its last successful poll, before the
// health reaper drops it. A task that never succeeded is reaped as soon as
// it's disabled and the interval has passed once.
const reapMultiple = 3

type pollOutcome struct {
	taskID   string
	result   PollingResult
	failures int
}

type taskState struct {
	task        PollingTask
	stop        chan struct{}
	stopOnce    sync.Once
	failures    int
	lastResult  *PollingResult
	lastSuccess time.Time
	nextPoll    time.Time
	disabledAt  time.Time
}

// halt signals the task's per-task goroutine to stop scheduling further
// polls. It never aborts a poll already in flight and is safe to call more
// than once.
func (s *taskState) halt() {
	s.stopOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
	})
}

// Scheduler is the single control loop that owns every task's bookkeeping.
// All mutation happens inside Run's select loop; per-task goroutines only
// ever send results, never touch the registry directly.
type Scheduler struct {
	pool                sessionPoller
	log                 *logging.Logger
	healthCheckInterval time.Duration

	cmdCh    chan command
	resultCh chan pollOutcome

	tasks map[string]*taskState
	wg    sync.WaitGroup
}

// NewScheduler constructs a Scheduler bound to pool. Call Run in its own
// goroutine before issuing any commands. pool is usually a
// *snmp.SessionManager; tests substitute a fake satisfying sessionPoller.
func NewScheduler(pool sessionPoller, log *logging.Logger, healthCheckInterval time.Duration) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	if healthCheckInterval <= 0 {
		healthCheckInterval = time.Minute
	}
	return &Scheduler{
		pool:                pool,
		log:                 log.With("component", "poller"),
		healthCheckInterval: healthCheckInterval,
		cmdCh:               make(chan command),
		resultCh:            make(chan pollOutcome),
		tasks:               make(map[string]*taskState),
	}
}

// Run drives the control loop until ctx is cancelled or Shutdown is called.
// It is meant to be started with `go scheduler.Run(ctx)`.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-s.cmdCh:
			if s.handleCommand(cmd) {
				return
			}
		case outcome := <-s.resultCh:
			s.handleResult(outcome)
		case <-ticker.C:
			s.reapStaleTasks()
		case <-ctx.Done():
			s.stopAll()
			return
		}
	}
}

// handleCommand processes one command and reports whether the loop should
// exit (true only for a shutdown command).
func (s *Scheduler) handleCommand(cmd command) bool {
	switch c := cmd.(type) {
	case addTaskCmd:
		c.Reply <- s.addTask(c.Task)
	case removeTaskCmd:
		c.Reply <- s.removeTask(c.TaskID)
	case updateTaskCmd:
		c.Reply <- s.updateTask(c.Task)
	case enableTaskCmd:
		c.Reply <- s.enableTask(c.TaskID, c.Enabled)
	case getTaskStatusCmd:
		status, found := s.statusOf(c.TaskID)
		c.Reply <- getTaskStatusReply{Status: status, Found: found}
	case listTasksCmd:
		c.Reply <- s.listStatuses()
	case shutdownCmd:
		s.stopAll()
		close(c.Done)
		return true
	}
	return false
}

func (s *Scheduler) addTask(task PollingTask) error {
	if _, exists := s.tasks[task.ID]; exists {
		return fleeterrors.Errorf(fleeterrors.KindProtocol, "task %q already exists", task.ID)
	}

	state := &taskState{task: task}
	s.tasks[task.ID] = state
	if task.Enabled {
		s.startTask(state)
	} else {
		state.disabledAt = time.Now()
	}
	return nil
}

func (s *Scheduler) removeTask(taskID string) error {
	state, ok := s.tasks[taskID]
	if !ok {
		return fleeterrors.Errorf(fleeterrors.KindProtocol, "task %q not found", taskID)
	}
	state.halt()
	delete(s.tasks, taskID)
	return nil
}

func (s *Scheduler) updateTask(task PollingTask) error {
	state, ok := s.tasks[task.ID]
	if !ok {
		return fleeterrors.Errorf(fleeterrors.KindProtocol, "task %q not found", task.ID)
	}
	state.halt()
	state.task = task
	state.failures = 0
	state.lastResult = nil
	if task.Enabled {
		s.startTask(state)
	} else {
		state.disabledAt = time.Now()
	}
	return nil
}

func (s *Scheduler) enableTask(taskID string, enabled bool) error {
	state, ok := s.tasks[taskID]
	if !ok {
		return fleeterrors.Errorf(fleeterrors.KindProtocol, "task %q not found", taskID)
	}
	if enabled == state.task.Enabled {
		return nil
	}
	state.task.Enabled = enabled
	if enabled {
		state.disabledAt = time.Time{}
		s.startTask(state)
	} else {
		state.halt()
		state.disabledAt = time.Now()
	}
	return nil
}

// startTask spins up the per-task goroutine with a fresh stop channel. stop
// carries only "quit scheduling new polls"; it is never wired into the
// context passed to a poll in flight, so halting a task can't abort one.
func (s *Scheduler) startTask(state *taskState) {
	state.stop = make(chan struct{})
	state.stopOnce = sync.Once{}

	s.wg.Add(1)
	go s.runTask(state.stop, state.task, state.failures)
}

// runTask is the per-task goroutine: sleep for the backoff-adjusted
// interval, poll, report the outcome, repeat. It never touches the
// registry directly, only s.resultCh. stop only gates the sleep between
// polls — once a poll is dispatched to the pool it always runs to
// completion (or its own SNMP-level timeout) and its result is always
// reported, even if stop closes while the poll is in flight.
func (s *Scheduler) runTask(stop <-chan struct{}, task PollingTask, startFailures int) {
	defer s.wg.Done()
	failures := startFailures

	for {
		wait := backoffInterval(task.Interval, failures)
		select {
		case <-stop:
			return
		case <-time.After(wait):
		}

		start := time.Now()
		values, err := s.pool.Get(context.Background(), task.Target, task.OIDs)
		result := PollingResult{
			TaskID:    task.ID,
			NodeID:    task.NodeID,
			Target:    task.Target.Target,
			Success:   err == nil,
			Values:    values,
			Err:       err,
			Timestamp: start,
			Duration:  time.Since(start),
		}

		if err != nil {
			failures++
			s.log.Warn("poll failed", "task", task.ID, "error", err.Error(), "consecutive_failures", failures)
		} else {
			failures = 0
		}

		s.resultCh <- pollOutcome{taskID: task.ID, result: result, failures: failures}

		select {
		case <-stop:
			return
		default:
		}
	}
}

func (s *Scheduler) handleResult(outcome pollOutcome) {
	state, ok := s.tasks[outcome.taskID]
	if !ok {
		return // task was removed while its poll was in flight
	}
	result := outcome.result
	state.failures = outcome.failures
	state.lastResult = &result
	if result.Success {
		state.lastSuccess = result.Timestamp
	}
	state.nextPoll = time.Now().Add(backoffInterval(state.task.Interval, state.failures))
}

// reapStaleTasks drops bookkeeping for tasks that are both disabled and
// whose last success is older than reapMultiple*healthCheckInterval. A task
// that has never succeeded is treated as arbitrarily stale. Enabled tasks,
// however many times they've failed, are never reaped.
func (s *Scheduler) reapStaleTasks() {
	threshold := time.Duration(reapMultiple) * s.healthCheckInterval
	for id, state := range s.tasks {
		if state.task.Enabled {
			continue
		}
		if time.Since(state.lastSuccess) >= threshold {
			delete(s.tasks, id)
		}
	}
}

// stopAll signals every task to stop scheduling new polls, then drains
// resultCh until every per-task goroutine has exited, so a poll that was
// already in flight when Shutdown was called still gets to report its
// result before the control loop stops.
func (s *Scheduler) stopAll() {
	for _, state := range s.tasks {
		state.halt()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	for {
		select {
		case outcome := <-s.resultCh:
			s.handleResult(outcome)
		case <-done:
			return
		}
	}
}

func (s *Scheduler) statusOf(taskID string) (TaskStatus, bool) {
	state, ok := s.tasks[taskID]
	if !ok {
		return TaskStatus{}, false
	}
	return toStatus(state), true
}

func (s *Scheduler) listStatuses() []TaskStatus {
	statuses := make([]TaskStatus, 0, len(s.tasks))
	for _, state := range s.tasks {
		statuses = append(statuses, toStatus(state))
	}
	return statuses
}

func toStatus(state *taskState) TaskStatus {
	return TaskStatus{
		Task:                state.task,
		ConsecutiveFailures: state.failures,
		LastResult:          state.lastResult,
		LastSuccess:         state.lastSuccess,
		NextPollTime:        state.nextPoll,
		DisabledAt:          state.disabledAt,
	}
}
