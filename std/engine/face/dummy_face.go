package face

import (
	"fmt"
	"sync"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
)

// DummyFace is an in-memory face for tests.
// Sent packets are either queued for Consume or handed to a responder.
type DummyFace struct {
	baseFace
	mut       sync.Mutex
	sendPkts  []enc.Buffer
	responder func(frame []byte)
}

func NewDummyFace() *DummyFace {
	return &DummyFace{
		baseFace: newBaseFace(true),
	}
}

func (f *DummyFace) String() string {
	return "dummy-face"
}

// SetResponder installs a callback receiving every sent frame instead of
// queueing it. The callback runs on its own goroutine and may call FeedPacket.
func (f *DummyFace) SetResponder(responder func(frame []byte)) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.responder = responder
}

func (f *DummyFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	f.setStateUp()
	return nil
}

func (f *DummyFace) Close() error {
	if !f.setStateClosed() {
		return errNotRunning
	}
	return nil
}

// Fail simulates the link going down.
func (f *DummyFace) Fail() {
	f.setStateDown()
}

func (f *DummyFace) Send(pkt enc.Wire) error {
	if !f.IsRunning() {
		return errNotRunning
	}

	frame := enc.Buffer(pkt.Join())

	f.mut.Lock()
	responder := f.responder
	if responder == nil {
		f.sendPkts = append(f.sendPkts, frame)
	}
	f.mut.Unlock()

	if responder != nil {
		go responder(frame)
	}
	return nil
}

// FeedPacket feeds a packet for the engine to consume.
func (f *DummyFace) FeedPacket(pkt enc.Buffer) error {
	if !f.IsRunning() {
		return errNotRunning
	}
	f.onPkt(pkt)
	return nil
}

// Consume returns the oldest sent packet, waiting briefly for one to arrive.
func (f *DummyFace) Consume() (enc.Buffer, error) {
	if !f.IsRunning() {
		return nil, errNotRunning
	}

	deadline := time.Now().Add(50 * time.Millisecond)
	for {
		f.mut.Lock()
		if len(f.sendPkts) > 0 {
			pkt := f.sendPkts[0]
			f.sendPkts = f.sendPkts[1:]
			f.mut.Unlock()
			return pkt, nil
		}
		f.mut.Unlock()

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("no packet to consume")
		}
		time.Sleep(time.Millisecond)
	}
}
