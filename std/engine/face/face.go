package face

import enc "github.com/named-data/ndnplay/std/encoding"

// Face is a link to a forwarder carrying whole NDN packets.
type Face interface {
	// IsRunning returns true if the face is running.
	IsRunning() bool
	// IsLocal returns true if the face is local.
	IsLocal() bool
	// OnPacket sets the callback for receiving packets.
	// The frame is only valid during the callback.
	OnPacket(onPkt func(frame []byte))
	// OnError sets the callback for errors.
	OnError(onError func(err error))
	// OnUp registers a callback for when the face comes up.
	OnUp(onUp func()) (cancel func())
	// OnDown registers a callback for when the face goes down unexpectedly.
	OnDown(onDown func()) (cancel func())
	// Open starts the face.
	Open() error
	// Close stops the face.
	Close() error
	// Send sends a packet frame to the face.
	Send(pkt enc.Wire) error
}
