package fetch

import (
	"context"
	"errors"
	"fmt"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
)

// ErrConfig is returned for malformed configuration, such as forwarding hints.
var ErrConfig = errors.New("configuration error")

// ErrInvalidURI is returned when a request URI is not an NDN name.
var ErrInvalidURI = errors.New("invalid content URI")

// ErrDiscovery is returned when no discovery strategy found a version.
var ErrDiscovery = errors.New("version discovery failed")

// PlaceholderStatus is the status code of every NetworkError.
const PlaceholderStatus = 503

// NetworkError is a recoverable retrieval failure reported to the player.
type NetworkError struct {
	URI        string
	StatusCode int
	Class      RequestClass
	Err        error
}

func NewNetworkError(uri string, status int, class RequestClass, err error) *NetworkError {
	return &NetworkError{URI: uri, StatusCode: status, Class: class, Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error %d for %s (%s): %v", e.StatusCode, e.URI, e.Class, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Recoverable is always true: the host may retry or fall back.
func (e *NetworkError) Recoverable() bool {
	return true
}

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool {
	return errors.Is(err, ndn.ErrCancelled)
}

// translator maps failures of a request into its outcome.
type translator struct {
	sink TelemetrySink
}

func (translator) String() string {
	return "fetch-translator"
}

// translate returns a cancellation if ctx is done, or a NetworkError otherwise.
// Only the latter emits a failure sample.
func (t translator) translate(ctx context.Context, uri string, name enc.Name, class RequestClass, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug(t, "Fetch cancelled", "name", name, "err", err)
		if errors.Is(err, ndn.ErrCancelled) {
			return err
		}
		return fmt.Errorf("%w: %w", ndn.ErrCancelled, ctxErr)
	}

	log.Warn(t, "Fetch failed", "name", name, "class", class, "err", err)
	record(t.sink, Sample{
		Kind:  SampleFailure,
		Name:  name.String(),
		Class: class,
		Error: err.Error(),
	})
	return NewNetworkError(uri, PlaceholderStatus, class, err)
}
