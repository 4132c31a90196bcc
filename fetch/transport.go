package fetch

import (
	"context"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
	rdr "github.com/named-data/ndnplay/std/ndn/rdr_2024"
	cong "github.com/named-data/ndnplay/std/object/congestion"
)

// EndpointOptions configure a transport endpoint for one fetch.
type EndpointOptions struct {
	// FwHint is attached to every Interest; empty for direct resolution.
	FwHint ndn.FwHint
	// Retries is the retransmission budget of single exchanges.
	Retries int
}

// SegmentOptions are the pacing parameters of a multi-segment retrieval.
type SegmentOptions struct {
	RTT            cong.RTTEstimator
	Window         cong.CongestionWindow
	RetxLimit      int
	EstimatedCount int
}

// SegmentResult is an assembled object.
type SegmentResult struct {
	Payload      []byte
	SegmentCount int
}

// Transport creates endpoints bound to a forwarding hint.
type Transport interface {
	Endpoint(opts EndpointOptions) Endpoint
}

// Endpoint is the retrieval capability the fetcher drives.
// All methods must return promptly once ctx is done.
type Endpoint interface {
	// ResolveByConvention returns the versioned name of the latest version
	// of name, learned from the naming convention.
	ResolveByConvention(ctx context.Context, name enc.Name) (enc.Name, error)
	// RetrieveMetadata fetches the RDR metadata of name.
	RetrieveMetadata(ctx context.Context, name enc.Name) (*rdr.MetaData, error)
	// FetchSegments retrieves all segments under a versioned name.
	FetchSegments(ctx context.Context, name enc.Name, opts SegmentOptions) (*SegmentResult, error)
}
