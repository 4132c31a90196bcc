package object

import (
	"context"
	"fmt"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
)

// ExpressRArgs are the arguments of ExpressR
type ExpressRArgs struct {
	Name   enc.Name
	Config ndn.InterestConfig
	// Retries is the number of times the Interest is re-expressed after a timeout.
	Retries int
}

// ErrNack is returned when the network answers with a Nack.
type ErrNack struct {
	Name   enc.Name
	Reason uint64
}

func (e ErrNack) Error() string {
	return fmt.Sprintf("nack for %s (reason=%d)", e.Name, e.Reason)
}

func (e ErrNack) Unwrap() error {
	return ndn.ErrNetwork
}

// ExpressR expresses a single Interest with reliability. Timeouts are
// retried with a fresh nonce; any other outcome is final.
func (c *Client) ExpressR(ctx context.Context, args ExpressRArgs) (*ndn.Data, error) {
	for attempt := 0; ; attempt++ {
		res := c.express(ctx, args.Name, args.Config)

		switch res.Result {
		case ndn.InterestResultData:
			return res.Data, nil
		case ndn.InterestResultNack:
			return nil, ErrNack{Name: args.Name, Reason: res.NackReason}
		case ndn.InterestCancelled:
			return nil, res.Error
		case ndn.InterestResultTimeout:
			log.Debug(c, "ExpressR Interest timeout", "name", args.Name, "attempt", attempt)
			if attempt >= args.Retries {
				return nil, fmt.Errorf("%w: %s after %d retries", ndn.ErrDeadlineExceed, args.Name, args.Retries)
			}
		default:
			return nil, res.Error
		}
	}
}

// express sends one Interest and waits for its outcome or ctx.
func (c *Client) express(ctx context.Context, name enc.Name, config ndn.InterestConfig) ndn.ExpressCallbackArgs {
	if err := ctx.Err(); err != nil {
		return cancelledResult(err)
	}

	config.Nonce = newNonce()
	ch := make(chan ndn.ExpressCallbackArgs, 1)
	cancel, err := c.engine.Express(&ndn.Interest{Name: name, InterestConfig: config}, func(args ndn.ExpressCallbackArgs) {
		ch <- args
	})
	if err != nil {
		return ndn.ExpressCallbackArgs{Result: ndn.InterestResultError, Error: err}
	}

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		cancel()
		return cancelledResult(ctx.Err())
	}
}

func cancelledResult(err error) ndn.ExpressCallbackArgs {
	return ndn.ExpressCallbackArgs{
		Result: ndn.InterestCancelled,
		Error:  fmt.Errorf("%w: %w", ndn.ErrCancelled, err),
	}
}
