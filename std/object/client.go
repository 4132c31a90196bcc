// Package object is the consumer side object client: reliable Interest
// expression, latest-version discovery and segmented object retrieval.
package object

import (
	"math/rand/v2"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/ndn"
	"github.com/named-data/ndnplay/std/types/optional"
)

// Engine is the part of the consumer engine used by the client.
type Engine interface {
	Express(interest *ndn.Interest, callback ndn.ExpressCallbackFunc) (cancel func(), err error)
	Clock() clock.Clock
	IsRunning() bool
}

type Client struct {
	// underlying API engine
	engine Engine
}

// NewClient creates a new client on a running engine.
func NewClient(engine Engine) *Client {
	return &Client{engine: engine}
}

// Instance log identifier
func (c *Client) String() string {
	return "client"
}

// Engine returns the underlying engine.
func (c *Client) Engine() Engine {
	return c.engine
}

func newNonce() optional.Optional[uint32] {
	return optional.Some(rand.Uint32())
}
