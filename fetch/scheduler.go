package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/log"
	pq "github.com/named-data/ndnplay/std/types/priority_queue"
)

const DefaultConcurrency = 4

// Job is the work of a ticket. ctx is cancelled when the ticket is.
type Job func(ctx context.Context, t *Ticket)

type TicketState int

const (
	TicketQueued TicketState = iota
	TicketRunning
	TicketDone
	TicketCancelled // cancelled before it started
)

func (s TicketState) String() string {
	switch s {
	case TicketQueued:
		return "queued"
	case TicketRunning:
		return "running"
	case TicketDone:
		return "done"
	default:
		return "cancelled"
	}
}

// Ticket is a job admitted to a Scheduler.
type Ticket struct {
	sched  *Scheduler
	job    Job
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
	item   *pq.Item[*Ticket, uint64]
	done   chan struct{}

	// protected by sched.mutex
	state     TicketState
	submitted time.Time
	started   time.Time
}

// Cancel aborts the ticket. A queued ticket never runs; a running one
// has its context cancelled.
func (t *Ticket) Cancel() {
	t.cancel()
}

// Done is closed when the job returned or the queued ticket was cancelled.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

func (t *Ticket) State() TicketState {
	t.sched.mutex.Lock()
	defer t.sched.mutex.Unlock()
	return t.state
}

// QueueWait is the time spent in the queue so far.
func (t *Ticket) QueueWait() time.Duration {
	t.sched.mutex.Lock()
	defer t.sched.mutex.Unlock()
	if t.state == TicketQueued {
		return t.sched.clock.Since(t.submitted)
	}
	if t.started.IsZero() {
		return 0
	}
	return t.started.Sub(t.submitted)
}

// SchedulerStats is a snapshot of the scheduler.
type SchedulerStats struct {
	Queued  int `json:"queued"`
	Running int `json:"running"`
	Limit   int `json:"limit"`
}

// Scheduler runs jobs in submission order with bounded concurrency.
type Scheduler struct {
	mutex   sync.Mutex
	clock   clock.Clock
	limit   int
	running int
	seq     uint64
	queue   pq.Queue[*Ticket, uint64]
}

func NewScheduler(limit int, clk clock.Clock) *Scheduler {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		clock: clk,
		limit: limit,
		queue: pq.New[*Ticket, uint64](),
	}
}

func (s *Scheduler) String() string {
	return "fetch-scheduler"
}

// Submit enqueues job. Cancelling ctx cancels the ticket.
func (s *Scheduler) Submit(ctx context.Context, job Job) *Ticket {
	tctx, cancel := context.WithCancel(ctx)
	t := &Ticket{
		sched:  s,
		job:    job,
		ctx:    tctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mutex.Lock()
	t.submitted = s.clock.Now()
	t.item = s.queue.Push(t, s.seq)
	s.seq++
	t.stop = context.AfterFunc(tctx, func() { s.dequeue(t) })
	s.dispatch()
	s.mutex.Unlock()

	return t
}

func (s *Scheduler) Stats() SchedulerStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SchedulerStats{Queued: s.queue.Len(), Running: s.running, Limit: s.limit}
}

// dispatch starts queued tickets while there is capacity.
// Must be called with the mutex held.
func (s *Scheduler) dispatch() {
	for s.running < s.limit && s.queue.Len() > 0 {
		t := s.queue.Pop()
		if t.ctx.Err() != nil {
			// cancelled before its dequeue callback ran
			t.state = TicketCancelled
			close(t.done)
			t.stop()
			t.cancel()
			continue
		}
		t.state = TicketRunning
		t.started = s.clock.Now()
		s.running++
		go s.run(t)
	}
}

func (s *Scheduler) run(t *Ticket) {
	t.job(t.ctx, t)

	s.mutex.Lock()
	s.running--
	t.state = TicketDone
	s.dispatch()
	s.mutex.Unlock()

	close(t.done)
	t.stop()
	t.cancel()
}

// dequeue drops a cancelled ticket that has not started yet.
func (s *Scheduler) dequeue(t *Ticket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if t.state != TicketQueued || !s.queue.Remove(t.item) {
		return
	}
	t.state = TicketCancelled
	close(t.done)
	log.Debug(s, "Queued request cancelled", "wait", s.clock.Since(t.submitted))
}
