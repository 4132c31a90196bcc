package fetch

import (
	"context"

	enc "github.com/named-data/ndnplay/std/encoding"
	rdr "github.com/named-data/ndnplay/std/ndn/rdr_2024"
	"github.com/named-data/ndnplay/std/object"
)

// ObjectTransport is a Transport over the NDN object client.
type ObjectTransport struct {
	client *object.Client
}

func NewObjectTransport(client *object.Client) *ObjectTransport {
	return &ObjectTransport{client: client}
}

func (t *ObjectTransport) Endpoint(opts EndpointOptions) Endpoint {
	return &objectEndpoint{client: t.client, opts: opts}
}

type objectEndpoint struct {
	client *object.Client
	opts   EndpointOptions
}

func (e *objectEndpoint) discoveryArgs(name enc.Name) object.DiscoveryArgs {
	return object.DiscoveryArgs{
		Name:    name,
		FwHint:  e.opts.FwHint,
		Retries: e.opts.Retries,
	}
}

func (e *objectEndpoint) ResolveByConvention(ctx context.Context, name enc.Name) (enc.Name, error) {
	return e.client.ResolveLatest(ctx, e.discoveryArgs(name))
}

func (e *objectEndpoint) RetrieveMetadata(ctx context.Context, name enc.Name) (*rdr.MetaData, error) {
	return e.client.FetchMetadata(ctx, e.discoveryArgs(name))
}

func (e *objectEndpoint) FetchSegments(ctx context.Context, name enc.Name, opts SegmentOptions) (*SegmentResult, error) {
	res, err := e.client.FetchSegments(ctx, object.SegmentArgs{
		Name:           name,
		FwHint:         e.opts.FwHint,
		RTT:            opts.RTT,
		Window:         opts.Window,
		RetxLimit:      opts.RetxLimit,
		EstimatedCount: opts.EstimatedCount,
	})
	if err != nil {
		return nil, err
	}
	return &SegmentResult{Payload: res.Payload, SegmentCount: res.SegmentCount}, nil
}
