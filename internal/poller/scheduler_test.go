package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/netfleet/netfleet/internal/snmp"
)

type fakePoller struct {
	mu      sync.Mutex
	calls   atomic.Int64
	err     error
	notify  chan struct{}
	blockOn chan struct{} // if set, Get waits on this until closed
}

func (f *fakePoller) Get(ctx context.Context, cfg snmp.SessionConfig, oids []string) ([]snmp.OIDValue, error) {
	f.calls.Add(1)
	if f.blockOn != nil {
		select {
		case <-f.blockOn:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.notify != nil {
		select {
		case f.notify <- struct{}{}:
		default:
		}
	}
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	return nil, err
}

func TestNextPollTimeBackoffFormula(t *testing.T) {
	base := 10 * time.Second
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 10 * time.Second},
		{1, 20 * time.Second},
		{2, 40 * time.Second},
		{3, 80 * time.Second},
		{4, 160 * time.Second},
		{5, 320 * time.Second},
		{6, 320 * time.Second}, // capped at min(failures,5)
		{100, 320 * time.Second},
	}

	for _, tc := range cases {
		got := backoffInterval(base, tc.failures)
		if got != tc.want {
			t.Errorf("backoffInterval(%v, %d) = %v, want %v", base, tc.failures, got, tc.want)
		}
	}
}

func TestPollingBackoffSequenceBookkeeping(t *testing.T) {
	sched := NewScheduler(&fakePoller{}, nil, time.Minute)

	task := PollingTask{ID: "t1", Interval: time.Second, Enabled: false}
	sched.tasks["t1"] = &taskState{task: task}

	failures := 0
	for i := 0; i < 4; i++ {
		failures++
		sched.handleResult(pollOutcome{
			taskID:   "t1",
			result:   PollingResult{TaskID: "t1", Err: errBoom, Timestamp: time.Now()},
			failures: failures,
		})
	}

	status, found := sched.statusOf("t1")
	if !found {
		t.Fatal("expected task to be found")
	}
	if status.ConsecutiveFailures != 4 {
		t.Errorf("expected 4 consecutive failures, got %d", status.ConsecutiveFailures)
	}

	wantNext := time.Now().Add(backoffInterval(time.Second, 4))
	if status.NextPollTime.Before(wantNext.Add(-time.Second)) || status.NextPollTime.After(wantNext.Add(time.Second)) {
		t.Errorf("NextPollTime = %v, want close to %v", status.NextPollTime, wantNext)
	}
}

func TestSchedulerPollingSequenceEndToEnd(t *testing.T) {
	fp := &fakePoller{notify: make(chan struct{}, 16)}
	sched := NewScheduler(fp, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	if err := sched.AddTask(PollingTask{ID: "t1", Interval: time.Millisecond, Enabled: true}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-fp.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for poll attempt %d", i+1)
		}
	}

	sched.Shutdown()

	if fp.calls.Load() < 3 {
		t.Errorf("expected at least 3 poll attempts, got %d", fp.calls.Load())
	}
}

func TestSchedulerShutdownMidFlight(t *testing.T) {
	fp := &fakePoller{blockOn: make(chan struct{})}
	sched := NewScheduler(fp, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	if err := sched.AddTask(PollingTask{ID: "t1", Interval: time.Millisecond, Enabled: true}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// Give the goroutine a moment to enter the blocking poll.
	time.Sleep(20 * time.Millisecond)

	shutdownDone := make(chan struct{})
	go func() {
		sched.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("expected Shutdown to block while a task goroutine is mid-poll")
	case <-time.After(50 * time.Millisecond):
	}

	close(fp.blockOn) // release the blocked poll so it can complete and report its result

	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not complete after the in-flight poll was released")
	}

	status, found := sched.statusOf("t1")
	if !found {
		t.Fatal("expected task t1 to still be tracked after shutdown")
	}
	if status.LastResult == nil {
		t.Error("expected the in-flight poll's result to be recorded, not dropped, by Shutdown")
	}
}

func TestReapStaleTasksDropsOnlyDisabledAndLastSuccessStale(t *testing.T) {
	sched := NewScheduler(&fakePoller{}, nil, time.Minute)
	threshold := reapMultiple * time.Minute

	sched.tasks["disabled-stale"] = &taskState{
		task:        PollingTask{ID: "disabled-stale", Enabled: false},
		lastSuccess: time.Now().Add(-threshold - time.Minute),
	}
	sched.tasks["disabled-fresh"] = &taskState{
		task:        PollingTask{ID: "disabled-fresh", Enabled: false},
		lastSuccess: time.Now(),
	}
	sched.tasks["disabled-never-succeeded"] = &taskState{
		task: PollingTask{ID: "disabled-never-succeeded", Enabled: false},
	}
	sched.tasks["enabled"] = &taskState{
		task: PollingTask{ID: "enabled", Enabled: true},
	}

	sched.reapStaleTasks()

	if _, ok := sched.tasks["disabled-stale"]; ok {
		t.Error("expected disabled task with a stale last success to be reaped")
	}
	if _, ok := sched.tasks["disabled-fresh"]; !ok {
		t.Error("expected disabled-but-recently-successful task to survive")
	}
	if _, ok := sched.tasks["disabled-never-succeeded"]; ok {
		t.Error("expected a disabled task that never succeeded to be reaped")
	}
	if _, ok := sched.tasks["enabled"]; !ok {
		t.Error("expected enabled task to survive regardless of age")
	}
}

type stubErr struct{}

func (stubErr) Error() string { return "boom" }

var errBoom error = stubErr{}
