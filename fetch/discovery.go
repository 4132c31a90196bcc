package fetch

import (
	"context"
	"fmt"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
	"go.uber.org/multierr"
)

type raceResult struct {
	conv Convention
	name enc.Name
	err  error
}

// resolve returns the versioned name of name. The first request of a
// session runs the discovery race; concurrent requests wait for it and
// then use the convention it settled.
func resolve(ctx context.Context, sess *Session, ep Endpoint, name enc.Name) (enc.Name, error) {
	for {
		sess.mutex.Lock()
		switch sess.convention {
		case ConventionNaming:
			version := sess.version.Unwrap()
			sess.mutex.Unlock()
			return name.Append(version), nil

		case ConventionMetadata:
			sess.mutex.Unlock()
			return resolveMetadata(ctx, ep, name)
		}

		if wait := sess.discovering; wait != nil {
			sess.mutex.Unlock()
			select {
			case <-wait:
				continue // re-check; race again if the leader failed
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ndn.ErrCancelled, ctx.Err())
			}
		}

		done := make(chan struct{})
		sess.discovering = done
		sess.races++
		sess.mutex.Unlock()

		res := race(ctx, ep, name)

		sess.mutex.Lock()
		if res.err == nil {
			sess.settle(res.conv, res.name)
		}
		sess.discovering = nil
		close(done)
		sess.mutex.Unlock()

		if res.err != nil {
			return nil, res.err
		}
		log.Info(sess, "Discovery convention settled", "convention", res.conv, "name", res.name)
		return res.name, nil
	}
}

// race runs both discovery strategies and returns the first success.
// The loser is cancelled.
func race(ctx context.Context, ep Endpoint, name enc.Name) raceResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, 2)
	go func() {
		versioned, err := ep.ResolveByConvention(ctx, name)
		if err == nil && len(versioned) <= len(name) {
			err = fmt.Errorf("%w: convention probe returned %s", ndn.ErrProtocol, versioned)
		}
		results <- raceResult{conv: ConventionNaming, name: versioned, err: err}
	}()
	go func() {
		versioned, err := resolveMetadata(ctx, ep, name)
		results <- raceResult{conv: ConventionMetadata, name: versioned, err: err}
	}()

	var errs error
	for range 2 {
		res := <-results
		if res.err == nil {
			return res
		}
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.conv, res.err))
	}
	return raceResult{err: fmt.Errorf("%w for %s: %w", ErrDiscovery, name, errs)}
}

func resolveMetadata(ctx context.Context, ep Endpoint, name enc.Name) (enc.Name, error) {
	meta, err := ep.RetrieveMetadata(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(meta.Name) == 0 {
		return nil, fmt.Errorf("%w: metadata of %s has no name", ndn.ErrProtocol, name)
	}
	return meta.Name, nil
}
