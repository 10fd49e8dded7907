package poller

// command is the sealed set of messages the control loop accepts. Each
// variant carries its own reply channel, following Go's request/reply
// idiom rather than a generic RPC envelope.
type command interface {
	isCommand()
}

type addTaskCmd struct {
	Task  PollingTask
	Reply chan error
}

type removeTaskCmd struct {
	TaskID string
	Reply  chan error
}

type updateTaskCmd struct {
	Task  PollingTask
	Reply chan error
}

type enableTaskCmd struct {
	TaskID  string
	Enabled bool
	Reply   chan error
}

type getTaskStatusCmd struct {
	TaskID string
	Reply  chan getTaskStatusReply
}

type getTaskStatusReply struct {
	Status TaskStatus
	Found  bool
}

type listTasksCmd struct {
	Reply chan []TaskStatus
}

type shutdownCmd struct {
	Done chan struct{}
}

func (addTaskCmd) isCommand()        {}
func (removeTaskCmd) isCommand()     {}
func (updateTaskCmd) isCommand()     {}
func (enableTaskCmd) isCommand()     {}
func (getTaskStatusCmd) isCommand()  {}
func (listTasksCmd) isCommand()      {}
func (shutdownCmd) isCommand()       {}

// AddTask registers a new task and starts its polling goroutine. It blocks
// until the control loop acknowledges, returning an error if a task with
// the same ID already exists.
func (s *Scheduler) AddTask(task PollingTask) error {
	reply := make(chan error, 1)
	s.cmdCh <- addTaskCmd{Task: task, Reply: reply}
	return <-reply
}

// RemoveTask stops a task's goroutine and forgets it.
func (s *Scheduler) RemoveTask(taskID string) error {
	reply := make(chan error, 1)
	s.cmdCh <- removeTaskCmd{TaskID: taskID, Reply: reply}
	return <-reply
}

// UpdateTask replaces a task's definition (target, OIDs, interval).
// Replacing a running task restarts its goroutine with a clean failure
// count.
func (s *Scheduler) UpdateTask(task PollingTask) error {
	reply := make(chan error, 1)
	s.cmdCh <- updateTaskCmd{Task: task, Reply: reply}
	return <-reply
}

// EnableTask flips whether a task is actively polled. Disabling a task
// stops its goroutine but keeps its bookkeeping until the health reaper (or
// RemoveTask) drops it.
func (s *Scheduler) EnableTask(taskID string, enabled bool) error {
	reply := make(chan error, 1)
	s.cmdCh <- enableTaskCmd{TaskID: taskID, Enabled: enabled, Reply: reply}
	return <-reply
}

// GetTaskStatus returns the current status of one task.
func (s *Scheduler) GetTaskStatus(taskID string) (TaskStatus, bool) {
	reply := make(chan getTaskStatusReply, 1)
	s.cmdCh <- getTaskStatusCmd{TaskID: taskID, Reply: reply}
	r := <-reply
	return r.Status, r.Found
}

// ListTasks returns the status of every known task.
func (s *Scheduler) ListTasks() []TaskStatus {
	reply := make(chan []TaskStatus, 1)
	s.cmdCh <- listTasksCmd{Reply: reply}
	return <-reply
}

// Shutdown stops every task goroutine and the control loop itself, then
// blocks until shutdown completes.
func (s *Scheduler) Shutdown() {
	done := make(chan struct{})
	s.cmdCh <- shutdownCmd{Done: done}
	<-done
}
