package object

import (
	"context"
	"fmt"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
	rdr "github.com/named-data/ndnplay/std/ndn/rdr_2024"
	"github.com/named-data/ndnplay/std/types/optional"
)

// maximum number of segments in an object (for safety)
const maxObjectSeg = 1e8

// discoveryLifetime is the lifetime of prefix and metadata Interests.
const discoveryLifetime = time.Second

// DiscoveryArgs are the arguments of ResolveLatest and FetchMetadata.
type DiscoveryArgs struct {
	Name    enc.Name
	FwHint  ndn.FwHint
	Retries int
}

// ResolveLatest learns the versioned name of an object from the naming
// convention: any fresh Data under the prefix carries the version component
// right after it.
func (c *Client) ResolveLatest(ctx context.Context, args DiscoveryArgs) (enc.Name, error) {
	if len(args.Name) == 0 {
		return nil, fmt.Errorf("consume: name cannot be empty")
	}

	log.Debug(c, "Fetching data with prefix", "name", args.Name)
	data, err := c.ExpressR(ctx, ExpressRArgs{
		Name: args.Name,
		Config: ndn.InterestConfig{
			CanBePrefix:    true,
			MustBeFresh:    true,
			ForwardingHint: args.FwHint,
			Lifetime:       optional.Some(discoveryLifetime),
		},
		Retries: args.Retries,
	})
	if err != nil {
		return nil, fmt.Errorf("consume: prefix fetch failed: %w", err)
	}

	return versionedPrefix(args.Name, data.Name)
}

// versionedPrefix returns the requested prefix with the version component
// that immediately follows it in the data name. Data deeper under the prefix,
// such as RDR metadata or a sub-object, does not name a version of it.
func versionedPrefix(prefix enc.Name, dataName enc.Name) (enc.Name, error) {
	if !prefix.IsPrefix(dataName) {
		return nil, fmt.Errorf("consume: data %s is not under %s", dataName, prefix)
	}
	if len(dataName) <= len(prefix) || !dataName[len(prefix)].IsVersion() {
		return nil, fmt.Errorf("consume: data %s has no version after %s", dataName, prefix)
	}
	return dataName.Prefix(len(prefix) + 1).Clone(), nil
}

// FetchMetadata gets the RDR metadata for an object with a given name.
func (c *Client) FetchMetadata(ctx context.Context, args DiscoveryArgs) (*rdr.MetaData, error) {
	if len(args.Name) == 0 {
		return nil, fmt.Errorf("consume: name cannot be empty")
	}

	log.Debug(c, "Fetching object metadata", "name", args.Name)
	data, err := c.ExpressR(ctx, ExpressRArgs{
		Name: rdr.MetadataName(args.Name),
		Config: ndn.InterestConfig{
			CanBePrefix:    true,
			MustBeFresh:    true,
			ForwardingHint: args.FwHint,
			Lifetime:       optional.Some(discoveryLifetime),
		},
		Retries: args.Retries,
	})
	if err != nil {
		return nil, fmt.Errorf("consume: metadata fetch failed: %w", err)
	}

	meta, err := rdr.ParseMetaData(data.Content)
	if err != nil {
		return nil, fmt.Errorf("consume: failed to parse object metadata: %w", err)
	}
	if last := meta.Name.At(-1); !last.IsVersion() {
		return nil, fmt.Errorf("consume: metadata name %s has no version", meta.Name)
	}

	// clone fields for lifetime
	meta.Name = meta.Name.Clone()
	return meta, nil
}
