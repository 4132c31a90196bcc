package face

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	errAlreadyRunning = errors.New("face is already running")
	errNotRunning     = errors.New("face is not running")
	errNoCallbacks    = errors.New("face callbacks are not set")
)

// baseFace is the base struct for face implementations.
type baseFace struct {
	running atomic.Bool
	local   bool
	onPkt   func(frame []byte)
	onError func(err error)
	sendMut sync.Mutex

	cbMut    sync.Mutex
	onUp     map[int]func()
	onDown   map[int]func()
	nextHndl int
}

func newBaseFace(local bool) baseFace {
	return baseFace{
		local:  local,
		onUp:   make(map[int]func()),
		onDown: make(map[int]func()),
	}
}

func (f *baseFace) IsRunning() bool {
	return f.running.Load()
}

func (f *baseFace) IsLocal() bool {
	return f.local
}

func (f *baseFace) OnPacket(onPkt func(frame []byte)) {
	f.onPkt = onPkt
}

func (f *baseFace) OnError(onError func(err error)) {
	f.onError = onError
}

func (f *baseFace) OnUp(onUp func()) (cancel func()) {
	return f.register(f.onUp, onUp)
}

func (f *baseFace) OnDown(onDown func()) (cancel func()) {
	return f.register(f.onDown, onDown)
}

func (f *baseFace) register(m map[int]func(), cb func()) func() {
	f.cbMut.Lock()
	defer f.cbMut.Unlock()
	hndl := f.nextHndl
	f.nextHndl++
	m[hndl] = cb
	return func() {
		f.cbMut.Lock()
		defer f.cbMut.Unlock()
		delete(m, hndl)
	}
}

func (f *baseFace) callbacks(m map[int]func()) []func() {
	f.cbMut.Lock()
	defer f.cbMut.Unlock()
	cbs := make([]func(), 0, len(m))
	for _, cb := range m {
		cbs = append(cbs, cb)
	}
	return cbs
}

func (f *baseFace) checkOpen() error {
	if f.IsRunning() {
		return errAlreadyRunning
	}
	if f.onError == nil || f.onPkt == nil {
		return errNoCallbacks
	}
	return nil
}

// setStateDown sets the face to down state, and makes the down
// callback if the face was previously up.
func (f *baseFace) setStateDown() {
	if f.running.Swap(false) {
		for _, cb := range f.callbacks(f.onDown) {
			cb()
		}
	}
}

// setStateUp sets the face to up state, and makes the up
// callback if the face was previously down.
func (f *baseFace) setStateUp() {
	if !f.running.Swap(true) {
		for _, cb := range f.callbacks(f.onUp) {
			cb()
		}
	}
}

// setStateClosed sets the face to closed state without
// making the onDown callback. Returns if the face was running.
func (f *baseFace) setStateClosed() bool {
	return f.running.Swap(false)
}
