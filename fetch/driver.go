package fetch

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
)

const (
	// DefaultEndpointRetries is the retransmission budget of single exchanges.
	DefaultEndpointRetries = 10
	// DefaultRetxLimit is the per-segment retransmission limit of a download.
	DefaultRetxLimit = 4
)

// Result is the outcome of a successful fetch.
type Result struct {
	// Name is the versioned name of the object
	Name         enc.Name
	Payload      []byte
	SegmentCount int
	Duration     time.Duration
	QueueWait    time.Duration
	// Cached is set when the payload came from the store. SegmentCount is
	// zero then, and the estimated count of the object is left unchanged.
	Cached bool
}

// driver downloads versioned objects with the adaptive state of a session.
type driver struct {
	transport Transport
	hints     *FwHintTable
	sink      TelemetrySink
	store     ndn.Store
	clock     clock.Clock
}

func (d *driver) String() string {
	return "fetch-driver"
}

// endpoint configures a transport endpoint for name.
func (d *driver) endpoint(name enc.Name) Endpoint {
	opts := EndpointOptions{Retries: DefaultEndpointRetries}
	if hint, ok := d.hints.Lookup(name); ok {
		opts.FwHint = hint
	}
	return d.transport.Endpoint(opts)
}

func (d *driver) download(
	ctx context.Context,
	sess *Session,
	ep Endpoint,
	key string,
	versioned enc.Name,
	class RequestClass,
) (*Result, error) {
	start := d.clock.Now()
	if res := d.cached(versioned); res != nil {
		res.Duration = d.clock.Since(start)
		record(d.sink, Sample{
			Kind:     SampleSuccess,
			Name:     versioned.String(),
			Class:    class,
			Duration: res.Duration,
			SRTT:     sess.RTT().EstimatedRTT(),
			RTO:      sess.RTT().RTO(),
			Window:   sess.Window().Size(),
			Cached:   true,
		})
		return res, nil
	}

	seg, err := ep.FetchSegments(ctx, versioned, SegmentOptions{
		RTT:            sess.RTT(),
		Window:         sess.Window(),
		RetxLimit:      DefaultRetxLimit,
		EstimatedCount: sess.EstimatedCount(key),
	})
	if err != nil {
		return nil, err
	}
	elapsed := d.clock.Since(start)

	sess.SetEstimatedCount(key, seg.SegmentCount)
	record(d.sink, Sample{
		Kind:     SampleSuccess,
		Name:     versioned.String(),
		Class:    class,
		Duration: elapsed,
		SRTT:     sess.RTT().EstimatedRTT(),
		RTO:      sess.RTT().RTO(),
		Window:   sess.Window().Size(),
	})

	if d.store != nil {
		if err := d.store.Put(versioned, seg.Payload); err != nil {
			log.Warn(d, "Unable to store object", "name", versioned, "err", err)
		}
	}

	return &Result{
		Name:         versioned,
		Payload:      seg.Payload,
		SegmentCount: seg.SegmentCount,
		Duration:     elapsed,
	}, nil
}

// cached returns a stored payload of an immutable versioned object.
func (d *driver) cached(versioned enc.Name) *Result {
	if d.store == nil || !versioned.At(-1).IsVersion() {
		return nil
	}
	payload, err := d.store.Get(versioned)
	if err != nil {
		log.Warn(d, "Store lookup failed", "name", versioned, "err", err)
		return nil
	}
	if payload == nil {
		return nil
	}
	log.Debug(d, "Serving object from store", "name", versioned)
	return &Result{Name: versioned, Payload: payload, Cached: true}
}
