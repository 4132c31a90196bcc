package engine

import (
	"fmt"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/named-data/ndnplay/std/engine/basic"
	"github.com/named-data/ndnplay/std/engine/face"
)

// NewBasicEngine creates a consumer engine on the given face with the wall clock.
func NewBasicEngine(face face.Face) *basic.Engine {
	return basic.NewEngine(face, clock.New())
}

func NewUnixFace(addr string) face.Face {
	return face.NewStreamFace("unix", addr, true)
}

// NewFaceFromUri creates a face for a transport URI.
// Supported schemes are unix, tcp, tcp4, tcp6, ws, wss and https (WebTransport).
func NewFaceFromUri(transport string, insecure bool) (face.Face, error) {
	uri, err := url.Parse(transport)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URI %s: %w", transport, err)
	}

	switch uri.Scheme {
	case "unix":
		return NewUnixFace(uri.Path), nil
	case "tcp", "tcp4", "tcp6":
		return face.NewStreamFace(uri.Scheme, uri.Host, false), nil
	case "ws", "wss":
		return face.NewWebSocketFace(uri.String(), false), nil
	case "https":
		return face.NewWebTransportFace(uri.String(), insecure), nil
	default:
		return nil, fmt.Errorf("unsupported transport URI: %s", transport)
	}
}

// NewDefaultFace creates a face from the client configuration.
func NewDefaultFace() (face.Face, error) {
	return NewFaceFromUri(GetClientConfig().TransportUri, false)
}
