// Package basic gives a consumer-side engine over a single face.
// It keeps a pending Interest table and matches incoming Data and Nacks.
package basic

import (
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/engine/face"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
	spec "github.com/named-data/ndnplay/std/ndn/spec_2022"
)

const TimeoutMargin = 10 * time.Millisecond

type pendInt struct {
	name        enc.Name
	callback    ndn.ExpressCallbackFunc
	canBePrefix bool
	timer       *clock.Timer
	// done guards against calling back twice (data racing timeout or cancel).
	done atomic.Bool
}

func (p *pendInt) finish(args ndn.ExpressCallbackArgs) {
	if p.done.Swap(true) {
		return
	}
	p.timer.Stop()
	p.callback(args)
}

type Engine struct {
	face  face.Face
	clock clock.Clock

	// pit maps the hash of an Interest name to its pending entries.
	pit     map[uint64][]*pendInt
	pitLock sync.Mutex

	// inQueue is the incoming packet queue.
	// The face will be blocked when the queue is full.
	inQueue chan []byte
	// close is the channel to signal the main goroutine to stop.
	close   chan struct{}
	running atomic.Bool
	stopped chan struct{}
}

func NewEngine(face face.Face, clk clock.Clock) *Engine {
	if face == nil {
		return nil
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		face:    face,
		clock:   clk,
		pit:     make(map[uint64][]*pendInt),
		inQueue: make(chan []byte, 256),
		close:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (e *Engine) String() string {
	return "basic-engine"
}

func (e *Engine) Face() face.Face {
	return e.face
}

func (e *Engine) Clock() clock.Clock {
	return e.clock
}

func (e *Engine) Start() error {
	if e.face.IsRunning() {
		return ndn.ErrInvalidValue{Item: "face", Value: "already running"}
	}

	e.face.OnPacket(func(frame []byte) {
		// Copy received buffer from face so face can reuse it
		frameCopy := make([]byte, len(frame))
		copy(frameCopy, frame)
		select {
		case e.inQueue <- frameCopy:
		case <-e.close:
		}
	})
	e.face.OnError(func(err error) {
		log.Error(e, "Error on face", "err", err, "face", e.face)
	})
	e.face.OnDown(func() {
		log.Warn(e, "Face is down, cancelling pending Interests", "face", e.face)
		e.cancelAll(ndn.ErrFaceDown)
	})

	if err := e.face.Open(); err != nil {
		return err
	}

	e.running.Store(true)
	go func() {
		defer close(e.stopped)
		defer e.face.Close()

		for {
			select {
			case frame := <-e.inQueue:
				e.onPacket(frame)
			case <-e.close:
				return
			}
		}
	}()

	return nil
}

// Stop closes the face and fails all pending Interests as cancelled.
func (e *Engine) Stop() error {
	if !e.running.Swap(false) {
		return ndn.ErrNotRunning
	}

	close(e.close)
	<-e.stopped
	e.cancelAll(ndn.ErrCancelled)
	return nil
}

func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

func (e *Engine) onPacket(frame []byte) {
	if log.HasTrace() {
		log.Trace(e, "Received packet bytes", "wire", hex.EncodeToString(frame))
	}

	pkt, err := spec.ParsePacket(frame)
	if err != nil {
		// Recoverable error. Should continue.
		log.Error(e, "Failed to parse packet", "err", err)
		return
	}

	switch {
	case pkt.Nack != nil:
		log.Trace(e, "Nack received", "reason", pkt.Nack.Reason, "name", pkt.Interest.Name)
		e.onNack(pkt.Interest.Name, pkt.Nack.Reason)
	case pkt.Data != nil:
		log.Trace(e, "Data received", "name", pkt.Data.Name)
		e.onData(pkt.Data)
	case pkt.Interest != nil:
		log.Debug(e, "Interest received by consumer engine - DROP", "name", pkt.Interest.Name)
	}
}

func (e *Engine) onData(data *ndn.Data) {
	matched := func() []*pendInt {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		ret := make([]*pendInt, 0, 2)
		hashes := data.Name.PrefixHash()
		for depth := len(data.Name); depth > 0; depth-- {
			h := hashes[depth]
			entries := e.pit[h]
			for i := 0; i < len(entries); i++ {
				entry := entries[i]
				if depth < len(data.Name) && !entry.canBePrefix {
					continue
				}
				if !entry.name.IsPrefix(data.Name) {
					continue
				}

				// pop entry
				entries[i] = entries[len(entries)-1]
				entries = entries[:len(entries)-1]
				i--
				ret = append(ret, entry)
			}
			e.setEntries(h, entries)
		}
		return ret
	}()

	if len(matched) == 0 {
		log.Debug(e, "Received data for an unknown interest - DROP", "name", data.Name)
		return
	}
	for _, entry := range matched {
		entry.finish(ndn.ExpressCallbackArgs{
			Result:     ndn.InterestResultData,
			Data:       data,
			NackReason: ndn.NackReasonNone,
		})
	}
}

func (e *Engine) onNack(name enc.Name, reason uint64) {
	entries := func() []*pendInt {
		e.pitLock.Lock()
		defer e.pitLock.Unlock()

		h := name.Hash()
		var ret, rest []*pendInt
		for _, entry := range e.pit[h] {
			if entry.name.Equal(name) {
				ret = append(ret, entry)
			} else {
				rest = append(rest, entry)
			}
		}
		e.setEntries(h, rest)
		return ret
	}()

	if len(entries) == 0 {
		log.Debug(e, "Received Nack for an unknown interest - DROP", "name", name)
		return
	}
	for _, entry := range entries {
		entry.finish(ndn.ExpressCallbackArgs{
			Result:     ndn.InterestResultNack,
			NackReason: reason,
		})
	}
}

// setEntries must be called with pitLock held.
func (e *Engine) setEntries(h uint64, entries []*pendInt) {
	if len(entries) == 0 {
		delete(e.pit, h)
	} else {
		e.pit[h] = entries
	}
}

// remove drops one entry from the PIT. Returns false if it was already gone.
func (e *Engine) remove(h uint64, target *pendInt) bool {
	e.pitLock.Lock()
	defer e.pitLock.Unlock()

	entries := e.pit[h]
	for i, entry := range entries {
		if entry == target {
			entries[i] = entries[len(entries)-1]
			e.setEntries(h, entries[:len(entries)-1])
			return true
		}
	}
	return false
}

func (e *Engine) cancelAll(err error) {
	e.pitLock.Lock()
	pit := e.pit
	e.pit = make(map[uint64][]*pendInt)
	e.pitLock.Unlock()

	for _, entries := range pit {
		for _, entry := range entries {
			entry.finish(ndn.ExpressCallbackArgs{
				Result: ndn.InterestCancelled,
				Error:  err,
			})
		}
	}
}

// Express sends an Interest and calls back exactly once with its outcome.
// The returned cancel function removes the pending entry and reports
// InterestCancelled if no outcome was delivered yet.
func (e *Engine) Express(interest *ndn.Interest, callback ndn.ExpressCallbackFunc) (cancel func(), err error) {
	if !e.IsRunning() {
		return nil, ndn.ErrNotRunning
	}
	if callback == nil {
		callback = func(ndn.ExpressCallbackArgs) {}
	}

	wire, err := spec.EncodeInterest(interest)
	if err != nil {
		return nil, err
	}

	lifetime := interest.Lifetime.GetOr(ndn.DefaultInterestLife)
	h := interest.Name.Hash()
	entry := &pendInt{
		name:        interest.Name,
		callback:    callback,
		canBePrefix: interest.CanBePrefix,
	}

	// Inject interest into PIT
	e.pitLock.Lock()
	entry.timer = e.clock.AfterFunc(lifetime+TimeoutMargin, func() {
		if e.remove(h, entry) {
			entry.finish(ndn.ExpressCallbackArgs{Result: ndn.InterestResultTimeout})
		}
	})
	e.pit[h] = append(e.pit[h], entry)
	e.pitLock.Unlock()

	if err := e.face.Send(enc.Wire{wire}); err != nil {
		log.Error(e, "Failed to send interest", "err", err)
		e.remove(h, entry)
		entry.done.Store(true)
		entry.timer.Stop()
		return nil, err
	}

	log.Trace(e, "Interest sent", "name", interest.Name)

	cancel = func() {
		if e.remove(h, entry) {
			entry.finish(ndn.ExpressCallbackArgs{
				Result: ndn.InterestCancelled,
				Error:  ndn.ErrCancelled,
			})
		}
	}
	return cancel, nil
}
