// Package fetch retrieves segmented media objects over NDN for players.
// A Fetcher admits requests through a bounded FIFO scheduler, discovers
// versions once per session and shares RTT and congestion state across
// all downloads of the session.
package fetch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
)

// Config of a Fetcher. Zero values select the defaults.
type Config struct {
	Concurrency    int
	Algorithm      string
	InitialWindow  int
	CountCacheSize int

	Sink  TelemetrySink
	Store ndn.Store
	Clock clock.Clock
}

type Fetcher struct {
	config     Config
	hints      *FwHintTable
	sched      *Scheduler
	driver     *driver
	translator translator

	sessionId atomic.Uint64
	session   atomic.Pointer[Session]
}

func NewFetcher(transport Transport, config Config) (*Fetcher, error) {
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Sink == nil {
		config.Sink = LogSink{}
	}

	hints := NewFwHintTable()
	f := &Fetcher{
		config: config,
		hints:  hints,
		sched:  NewScheduler(config.Concurrency, config.Clock),
		driver: &driver{
			transport: transport,
			hints:     hints,
			sink:      config.Sink,
			store:     config.Store,
			clock:     config.Clock,
		},
		translator: translator{sink: config.Sink},
	}

	sess, err := f.newSession()
	if err != nil {
		return nil, err
	}
	f.session.Store(sess)
	return f, nil
}

func (f *Fetcher) String() string {
	return "fetcher"
}

func (f *Fetcher) newSession() (*Session, error) {
	return NewSession(f.sessionId.Add(1), SessionOptions{
		Algorithm:      f.config.Algorithm,
		InitialWindow:  f.config.InitialWindow,
		CountCacheSize: f.config.CountCacheSize,
		Clock:          f.config.Clock,
	})
}

// UpdateForwardingHints replaces the forwarding hint table.
func (f *Fetcher) UpdateForwardingHints(mapping map[string]string) error {
	if err := f.hints.Update(mapping); err != nil {
		return err
	}
	log.Info(f, "Forwarding hints updated", "entries", f.hints.Len())
	return nil
}

// ResetSession discards all adaptive state. Running requests finish on
// the session they started with.
func (f *Fetcher) ResetSession() {
	// options were validated by NewFetcher
	sess, err := f.newSession()
	if err != nil {
		log.Error(f, "Unable to create session", "err", err)
		return
	}
	old := f.session.Swap(sess)
	log.Info(f, "Session reset", "old", old.ID(), "new", sess.ID())
}

// Session returns the current session.
func (f *Fetcher) Session() *Session {
	return f.session.Load()
}

// Handle is a pending fetch.
type Handle struct {
	URI   string
	Class RequestClass

	ticket *Ticket
	// set before ticket is done
	result *Result
	err    error
}

// Cancel aborts the fetch. The handle settles with a cancellation.
func (h *Handle) Cancel() {
	if h.ticket != nil {
		h.ticket.Cancel()
	}
}

// Done is closed when the fetch settled.
func (h *Handle) Done() <-chan struct{} {
	if h.ticket == nil {
		return closedChan
	}
	return h.ticket.Done()
}

// Wait blocks until the fetch settles. The error is a *NetworkError,
// a cancellation (ndn.ErrCancelled) or ErrInvalidURI.
func (h *Handle) Wait() (*Result, error) {
	<-h.Done()
	if h.result == nil && h.err == nil {
		return nil, fmt.Errorf("%w: request cancelled before it started", ndn.ErrCancelled)
	}
	return h.result, h.err
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Fetch retrieves the object at uri. Cancelling ctx cancels the fetch.
func (f *Fetcher) Fetch(ctx context.Context, uri string, class RequestClass) *Handle {
	h := &Handle{URI: uri, Class: class}

	name, err := ParseURI(uri)
	if err != nil {
		h.err = err
		return h
	}
	key := CountKey(name)

	h.ticket = f.sched.Submit(ctx, func(ctx context.Context, t *Ticket) {
		sess := f.session.Load()
		ep := f.driver.endpoint(name)
		start := f.config.Clock.Now()

		versioned, err := resolve(ctx, sess, ep, name)
		if err != nil {
			h.err = f.translator.translate(ctx, uri, name, class, err)
			return
		}

		res, err := f.driver.download(ctx, sess, ep, key, versioned, class)
		if err != nil {
			h.err = f.translator.translate(ctx, uri, versioned, class, err)
			return
		}
		res.QueueWait = t.QueueWait()
		log.Debug(f, "Fetch completed", "name", versioned, "segments", res.SegmentCount,
			"total", f.config.Clock.Since(start), "wait", res.QueueWait)
		h.result = res
	})
	return h
}

// Diagnostics is a read-only snapshot of the fetcher.
type Diagnostics struct {
	SessionID  uint64        `json:"session_id"`
	Convention string        `json:"convention"`
	Version    string        `json:"version,omitempty"`
	Queued     int           `json:"queued"`
	Running    int           `json:"running"`
	Limit      int           `json:"limit"`
	SRTT       time.Duration `json:"srtt"`
	RTTVar     time.Duration `json:"rttvar"`
	RTO        time.Duration `json:"rto"`
	Window     int           `json:"cwnd"`
	Algorithm  string        `json:"algorithm"`
	FwHints    int           `json:"fw_hints"`
}

func (f *Fetcher) Diagnostics() Diagnostics {
	sess := f.session.Load()
	stats := f.sched.Stats()
	d := Diagnostics{
		SessionID:  sess.ID(),
		Convention: sess.Convention().String(),
		Queued:     stats.Queued,
		Running:    stats.Running,
		Limit:      stats.Limit,
		SRTT:       sess.RTT().EstimatedRTT(),
		RTTVar:     sess.RTT().DeviationRTT(),
		RTO:        sess.RTT().RTO(),
		Window:     sess.Window().Size(),
		Algorithm:  sess.Window().String(),
		FwHints:    f.hints.Len(),
	}
	if v, ok := sess.Version(); ok {
		d.Version = v.String()
	}
	return d
}
