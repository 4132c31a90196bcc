package object

import (
	"context"
	"errors"
	"fmt"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
	cong "github.com/named-data/ndnplay/std/object/congestion"
	"github.com/named-data/ndnplay/std/types/optional"
)

// SegmentArgs are the arguments of FetchSegments.
type SegmentArgs struct {
	// Versioned name of the object
	Name   enc.Name
	FwHint ndn.FwHint
	// RTT and Window may be shared by concurrent fetches.
	RTT    cong.RTTEstimator
	Window cong.CongestionWindow
	// RetxLimit is the number of retransmissions allowed per segment.
	RetxLimit int
	// EstimatedCount is the number of segments requested before the
	// FinalBlockId is known.
	EstimatedCount int
}

// SegmentResult is an assembled object.
type SegmentResult struct {
	Payload      []byte
	SegmentCount int
}

type segOutcome struct {
	seg    int
	retx   int
	sentAt time.Time
	res    ndn.ExpressCallbackArgs
}

// segFetch is the state of one windowed object retrieval.
// It is only touched by the goroutine running FetchSegments.
type segFetch struct {
	client *Client
	args   SegmentArgs

	// segment count from final block id (-1 if unknown)
	segCnt   int
	next     int
	content  map[int][]byte
	pending  map[int]func()
	outcomes chan segOutcome
	done     chan struct{}
}

// log identifier
func (s *segFetch) String() string {
	return "client-seg"
}

// FetchSegments retrieves all segments of a versioned object. Up to
// Window.Size() Interests are outstanding; timeouts back off the RTO and
// signal loss, congestion Nacks signal congestion, both are retransmitted
// within RetxLimit.
func (c *Client) FetchSegments(ctx context.Context, args SegmentArgs) (*SegmentResult, error) {
	if len(args.Name) == 0 {
		return nil, fmt.Errorf("consume: name cannot be empty")
	}
	if args.RTT == nil {
		args.RTT = cong.NewMeanRTTEstimator()
	}
	if args.Window == nil {
		args.Window = cong.NewFixedCongestionWindow(10)
	}

	s := &segFetch{
		client:   c,
		args:     args,
		segCnt:   -1,
		content:  make(map[int][]byte),
		pending:  make(map[int]func()),
		outcomes: make(chan segOutcome, 16),
		done:     make(chan struct{}),
	}
	defer s.close()

	for {
		if s.segCnt >= 0 && len(s.content) == s.segCnt {
			log.Debug(s, "Object completed successfully", "name", args.Name, "segments", s.segCnt)
			return s.assemble(), nil
		}

		if err := s.fill(); err != nil {
			return nil, err
		}

		select {
		case o := <-s.outcomes:
			if err := s.handle(o); err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ndn.ErrCancelled, ctx.Err())
		}
	}
}

func (s *segFetch) close() {
	close(s.done)
	for _, cancel := range s.pending {
		cancel()
	}
}

// fill sends new Interests while the window has room.
func (s *segFetch) fill() error {
	limit := s.segCnt
	if limit < 0 {
		limit = max(s.args.EstimatedCount, 1)
	}
	window := max(s.args.Window.Size(), 1)

	for len(s.pending) < window && s.next < limit {
		if err := s.send(s.next, 0); err != nil {
			return err
		}
		s.next++
	}

	// hint exhausted without learning the count
	if len(s.pending) == 0 && s.segCnt < 0 {
		if err := s.send(s.next, 0); err != nil {
			return err
		}
		s.next++
	}
	return nil
}

func (s *segFetch) send(seg int, retx int) error {
	clock := s.client.engine.Clock()
	config := ndn.InterestConfig{
		ForwardingHint: s.args.FwHint,
		Nonce:          newNonce(),
		Lifetime:       optional.Some(min(s.args.RTT.RTO(), ndn.DefaultInterestLife)),
	}
	name := s.args.Name.Append(enc.NewSegmentComponent(uint64(seg)))
	sentAt := clock.Now()

	cancel, err := s.client.engine.Express(&ndn.Interest{Name: name, InterestConfig: config},
		func(res ndn.ExpressCallbackArgs) {
			s.deliver(segOutcome{seg: seg, retx: retx, sentAt: sentAt, res: res})
		})
	if err != nil {
		return fmt.Errorf("consume: failed to express segment %d: %w", seg, err)
	}
	s.pending[seg] = cancel
	return nil
}

// deliver hands an outcome to the fetch loop without blocking the caller,
// which may be the engine or the fetch loop itself cancelling an Interest.
func (s *segFetch) deliver(o segOutcome) {
	select {
	case s.outcomes <- o:
	case <-s.done:
	default:
		go func() {
			select {
			case s.outcomes <- o:
			case <-s.done:
			}
		}()
	}
}

func (s *segFetch) handle(o segOutcome) error {
	delete(s.pending, o.seg)

	// overshoot of the count hint, or a duplicate
	if s.segCnt >= 0 && o.seg >= s.segCnt {
		return nil
	}
	if _, ok := s.content[o.seg]; ok {
		return nil
	}

	switch o.res.Result {
	case ndn.InterestResultData:
		rtt := s.client.engine.Clock().Since(o.sentAt)
		s.args.RTT.AddMeasurement(rtt, o.retx > 0)
		s.args.Window.HandleSignal(cong.SigData)
		return s.handleData(o.seg, o.res.Data)

	case ndn.InterestResultTimeout:
		s.args.RTT.Backoff()
		s.args.Window.HandleSignal(cong.SigLoss)
		return s.retransmit(o, fmt.Errorf("%w: segment %d of %s", ndn.ErrDeadlineExceed, o.seg, s.args.Name))

	case ndn.InterestResultNack:
		nack := ErrNack{Name: s.args.Name.Append(enc.NewSegmentComponent(uint64(o.seg))), Reason: o.res.NackReason}
		if o.res.NackReason != ndn.NackReasonCongestion {
			return nack
		}
		s.args.Window.HandleSignal(cong.SigCongest)
		return s.retransmit(o, nack)

	default:
		if o.res.Error == nil {
			return fmt.Errorf("consume: fetch seg failed with result: %s", o.res.Result)
		}
		return o.res.Error
	}
}

func (s *segFetch) retransmit(o segOutcome, cause error) error {
	if o.retx >= s.args.RetxLimit {
		return fmt.Errorf("consume: retransmission limit reached: %w", cause)
	}
	log.Debug(s, "Retransmitting segment", "name", s.args.Name, "seg", o.seg, "retx", o.retx+1)
	return s.send(o.seg, o.retx+1)
}

func (s *segFetch) handleData(seg int, data *ndn.Data) error {
	if segComp := data.Name.At(-1); !segComp.IsSegment() || int(segComp.NumberVal()) != seg {
		return fmt.Errorf("%w: unexpected segment name %s", ndn.ErrProtocol, data.Name)
	}

	// the first segment received tells the size of the object
	if s.segCnt < 0 {
		fbId, ok := data.FinalBlockID.Get()
		if !ok {
			return fmt.Errorf("%w: no FinalBlockId in object %s", ndn.ErrProtocol, s.args.Name)
		}
		if !fbId.IsSegment() {
			return fmt.Errorf("%w: invalid FinalBlockId type=%d", ndn.ErrProtocol, fbId.Typ)
		}
		if fbId.NumberVal() >= maxObjectSeg {
			return fmt.Errorf("%w: invalid FinalBlockId=%d", ndn.ErrProtocol, fbId.NumberVal())
		}
		s.segCnt = int(fbId.NumberVal()) + 1

		// drop Interests beyond the end of the object
		for pseg, cancel := range s.pending {
			if pseg >= s.segCnt {
				delete(s.pending, pseg)
				cancel()
			}
		}
		for pseg := range s.content {
			if pseg >= s.segCnt {
				delete(s.content, pseg)
			}
		}
	}

	if seg >= s.segCnt {
		return nil
	}
	s.content[seg] = data.Content
	return nil
}

func (s *segFetch) assemble() *SegmentResult {
	size := 0
	for _, buf := range s.content {
		size += len(buf)
	}
	payload := make([]byte, 0, size)
	for i := 0; i < s.segCnt; i++ {
		payload = append(payload, s.content[i]...)
	}
	return &SegmentResult{Payload: payload, SegmentCount: s.segCnt}
}

// IsNack reports whether err was caused by a network Nack.
func IsNack(err error) bool {
	var nack ErrNack
	return errors.As(err, &nack)
}
