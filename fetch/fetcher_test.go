package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/named-data/ndnplay/fetch"
	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
	"github.com/named-data/ndnplay/std/object/storage"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestFetchNamingConvention(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(7)
	f := newFetcher(t, tr, fetch.Config{})

	res, err := wait(t, f.Fetch(context.Background(), "ndn:/video/one", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, "/video/one/v=7", res.Name.String())
	require.Equal(t, []byte("/video/one/v=7"), res.Payload)

	sess := f.Session()
	require.Equal(t, fetch.ConventionNaming, sess.Convention())
	version, ok := sess.Version()
	require.True(t, ok)
	require.Equal(t, "v=7", version.String())

	// the metadata loser was cancelled
	eventually(t, func() bool { return tr.cancelled.Load() == 1 })
	probes, metas := tr.probes.Load(), tr.metas.Load()
	require.Equal(t, int32(1), probes)
	require.Equal(t, int32(1), metas)

	// later assets reuse the version without any round trip
	for _, asset := range []string{"/video/two", "/video/three"} {
		res, err := wait(t, f.Fetch(context.Background(), asset, fetch.ClassSegment))
		require.NoError(t, err)
		require.Equal(t, asset+"/v=7", res.Name.String())
	}
	require.Equal(t, probes, tr.probes.Load())
	require.Equal(t, metas, tr.metas.Load())
	require.Equal(t, 1, sess.Races())
	require.Equal(t, fetch.ConventionNaming, f.Session().Convention())
}

func TestFetchMetadataConvention(t *testing.T) {
	tr := newFakeTransport()
	tr.meta = versionMeta(3)
	f := newFetcher(t, tr, fetch.Config{})

	res, err := wait(t, f.Fetch(context.Background(), "/video/one", fetch.ClassManifest))
	require.NoError(t, err)
	require.Equal(t, "/video/one/v=3", res.Name.String())
	require.Equal(t, fetch.ConventionMetadata, f.Session().Convention())
	_, ok := f.Session().Version()
	require.False(t, ok)
	eventually(t, func() bool { return tr.cancelled.Load() == 1 })

	// each asset gets its own metadata call
	res, err = wait(t, f.Fetch(context.Background(), "/video/two", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, "/video/two/v=3", res.Name.String())
	require.Equal(t, int32(2), tr.metas.Load())
	require.Equal(t, int32(1), tr.probes.Load())
	require.Equal(t, 1, f.Session().Races())
}

func TestFetchConventionNeverChanges(t *testing.T) {
	tr := newFakeTransport()
	tr.meta = versionMeta(3)
	f := newFetcher(t, tr, fetch.Config{})

	_, err := wait(t, f.Fetch(context.Background(), "/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, fetch.ConventionMetadata, f.Session().Convention())

	// the probe would now win, but the session does not race again
	eventually(t, func() bool { return tr.cancelled.Load() == 1 })
	tr.probe = versionProbe(9)
	for i := range 5 {
		res, err := wait(t, f.Fetch(context.Background(), fmt.Sprintf("/b/%d", i), fetch.ClassSegment))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("/b/%d/v=3", i), res.Name.String())
	}
	require.Equal(t, fetch.ConventionMetadata, f.Session().Convention())
	require.Equal(t, 1, f.Session().Races())
}

func TestFetchResetSessionRacesAgain(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	f := newFetcher(t, tr, fetch.Config{})

	_, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	first := f.Session()
	first.SetEstimatedCount("/video/a", 40)

	f.ResetSession()
	second := f.Session()
	require.NotEqual(t, first.ID(), second.ID())
	require.Equal(t, fetch.ConventionUnknown, second.Convention())
	require.Equal(t, fetch.DefaultEstimatedCount, second.EstimatedCount("/video/a"))
	require.NotSame(t, first.Window(), second.Window())

	eventually(t, func() bool { return tr.cancelled.Load() == 1 })
	tr.probe = versionProbe(2)
	res, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, "/video/a/v=2", res.Name.String())
	require.Equal(t, int32(2), tr.probes.Load())
	require.Equal(t, 1, second.Races())
}

func TestFetchDiscoveryFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = failProbe(ndn.ErrDeadlineExceed)
	tr.meta = failWith(ndn.ErrNetwork)
	sink := &sampleLog{}
	f := newFetcher(t, tr, fetch.Config{Sink: sink})

	_, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassLicense))
	var netErr *fetch.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, "/video/a", netErr.URI)
	require.Equal(t, fetch.PlaceholderStatus, netErr.StatusCode)
	require.Equal(t, fetch.ClassLicense, netErr.Class)
	require.True(t, netErr.Recoverable())
	require.ErrorIs(t, err, fetch.ErrDiscovery)
	require.ErrorIs(t, err, ndn.ErrDeadlineExceed)
	require.ErrorIs(t, err, ndn.ErrNetwork)
	require.False(t, fetch.IsCancelled(err))
	require.Equal(t, fetch.ConventionUnknown, f.Session().Convention())

	samples := sink.all()
	require.Len(t, samples, 1)
	require.Equal(t, fetch.SampleFailure, samples[0].Kind)
	require.Equal(t, "/video/a", samples[0].Name)
	require.NotEmpty(t, samples[0].Error)

	// the next request races from scratch
	tr.probe = versionProbe(4)
	res, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, "/video/a/v=4", res.Name.String())
	require.Equal(t, 2, f.Session().Races())
}

func TestFetchSingleFlightDiscovery(t *testing.T) {
	tr := newFakeTransport()
	gate := make(chan struct{})
	tr.probe = func(ctx context.Context, name enc.Name) (enc.Name, error) {
		select {
		case <-gate:
			return name.Append(enc.NewVersionComponent(5)), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	tr.meta = failWith(ndn.ErrNetwork)
	f := newFetcher(t, tr, fetch.Config{Concurrency: 4})

	handles := make([]*fetch.Handle, 4)
	for i := range handles {
		handles[i] = f.Fetch(context.Background(), fmt.Sprintf("/video/%d", i), fetch.ClassSegment)
	}
	eventually(t, func() bool { return f.Diagnostics().Running == 4 })
	require.Equal(t, int32(1), tr.probes.Load())

	close(gate)
	for i, h := range handles {
		res, err := wait(t, h)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("/video/%d/v=5", i), res.Name.String())
	}
	require.Equal(t, int32(1), tr.probes.Load())
	require.Equal(t, int32(1), tr.metas.Load())
	require.Equal(t, 1, f.Session().Races())
}

func TestFetchSingleFlightLeaderFails(t *testing.T) {
	tr := newFakeTransport()
	gate := make(chan struct{})
	var mutex sync.Mutex
	calls := 0
	tr.probe = func(ctx context.Context, name enc.Name) (enc.Name, error) {
		mutex.Lock()
		calls++
		leader := calls == 1
		mutex.Unlock()
		if leader {
			<-gate
			return nil, ndn.ErrDeadlineExceed
		}
		return name.Append(enc.NewVersionComponent(6)), nil
	}
	tr.meta = failWith(ndn.ErrNetwork)
	f := newFetcher(t, tr, fetch.Config{Concurrency: 2})

	leader := f.Fetch(context.Background(), "/video/a", fetch.ClassSegment)
	eventually(t, func() bool { return tr.probes.Load() == 1 })
	follower := f.Fetch(context.Background(), "/video/b", fetch.ClassSegment)
	eventually(t, func() bool { return f.Diagnostics().Running == 2 })

	close(gate)
	_, err := wait(t, leader)
	require.ErrorIs(t, err, fetch.ErrDiscovery)

	res, err := wait(t, follower)
	require.NoError(t, err)
	require.Equal(t, "/video/b/v=6", res.Name.String())
	require.Equal(t, 2, f.Session().Races())
}

func TestFetchEstimatedCount(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	tr.segments = func(_ context.Context, name enc.Name, _ fetch.SegmentOptions) (*fetch.SegmentResult, error) {
		return &fetch.SegmentResult{Payload: []byte("x"), SegmentCount: 12}, nil
	}
	f := newFetcher(t, tr, fetch.Config{})

	res, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, 12, res.SegmentCount)
	opts, ok := tr.segOptsOf("/video/a/v=1")
	require.True(t, ok)
	require.Equal(t, fetch.DefaultEstimatedCount, opts.EstimatedCount)
	require.Equal(t, fetch.DefaultRetxLimit, opts.RetxLimit)
	require.Same(t, f.Session().RTT(), opts.RTT)
	require.Same(t, f.Session().Window(), opts.Window)
	require.Equal(t, 12, f.Session().EstimatedCount("/video/a"))

	// refetch of the same asset uses the observed count
	_, err = wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	opts, _ = tr.segOptsOf("/video/a/v=1")
	require.Equal(t, 12, opts.EstimatedCount)

	// other assets still start from the default
	_, err = wait(t, f.Fetch(context.Background(), "/video/b", fetch.ClassSegment))
	require.NoError(t, err)
	opts, _ = tr.segOptsOf("/video/b/v=1")
	require.Equal(t, fetch.DefaultEstimatedCount, opts.EstimatedCount)
}

func TestFetchForwardingHint(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	f := newFetcher(t, tr, fetch.Config{})
	require.NoError(t, f.UpdateForwardingHints(map[string]string{
		"/a":   "/hintX",
		"/a/b": "/hintY",
	}))

	_, err := wait(t, f.Fetch(context.Background(), "/a/b/c", fetch.ClassSegment))
	require.NoError(t, err)
	ep := tr.lastEndpoint()
	require.Equal(t, "/hintY", ep.FwHint.String())
	require.Equal(t, fetch.DefaultEndpointRetries, ep.Retries)

	_, err = wait(t, f.Fetch(context.Background(), "/z", fetch.ClassSegment))
	require.NoError(t, err)
	require.Empty(t, tr.lastEndpoint().FwHint)

	err = f.UpdateForwardingHints(map[string]string{"/a": "not a hint,"})
	require.ErrorIs(t, err, fetch.ErrConfig)
	_, err = wait(t, f.Fetch(context.Background(), "/a/z", fetch.ClassSegment))
	require.NoError(t, err)
	require.Equal(t, "/hintX", tr.lastEndpoint().FwHint.String())
	require.Equal(t, 2, f.Diagnostics().FwHints)
}

func TestFetchCancelRunning(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	started := make(chan struct{})
	tr.segments = func(ctx context.Context, _ enc.Name, _ fetch.SegmentOptions) (*fetch.SegmentResult, error) {
		close(started)
		<-ctx.Done()
		// the transport fails concurrently with the cancellation
		return nil, errors.Join(ndn.ErrNetwork, ndn.ErrFaceDown)
	}
	sink := &sampleLog{}
	f := newFetcher(t, tr, fetch.Config{Sink: sink})

	h := f.Fetch(context.Background(), "/video/a", fetch.ClassSegment)
	<-started
	h.Cancel()
	_, err := wait(t, h)
	require.True(t, fetch.IsCancelled(err))
	var netErr *fetch.NetworkError
	require.False(t, errors.As(err, &netErr))
	require.Empty(t, sink.all())
}

func TestFetchCancelByContext(t *testing.T) {
	tr := newFakeTransport()
	f := newFetcher(t, tr, fetch.Config{})

	// discovery blocks on both strategies until the request is cancelled
	ctx, cancel := context.WithCancel(context.Background())
	h := f.Fetch(ctx, "/video/a", fetch.ClassSegment)
	eventually(t, func() bool { return tr.probes.Load() == 1 && tr.metas.Load() == 1 })
	cancel()
	_, err := wait(t, h)
	require.ErrorIs(t, err, ndn.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, fetch.ConventionUnknown, f.Session().Convention())
}

func TestFetchCancelQueued(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	gate := make(chan struct{})
	tr.segments = func(ctx context.Context, name enc.Name, _ fetch.SegmentOptions) (*fetch.SegmentResult, error) {
		<-gate
		return &fetch.SegmentResult{Payload: []byte("x"), SegmentCount: 1}, nil
	}
	f := newFetcher(t, tr, fetch.Config{Concurrency: 1})

	first := f.Fetch(context.Background(), "/video/a", fetch.ClassSegment)
	queued := f.Fetch(context.Background(), "/video/b", fetch.ClassSegment)
	eventually(t, func() bool { return f.Diagnostics().Queued == 1 })

	queued.Cancel()
	_, err := wait(t, queued)
	require.ErrorIs(t, err, ndn.ErrCancelled)

	close(gate)
	_, err = wait(t, first)
	require.NoError(t, err)
	require.Equal(t, []string{"/video/a/v=1"}, tr.fetchedNames())
}

func TestFetchFiveWithLimitFour(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	var mutex sync.Mutex
	gates := map[string]chan struct{}{}
	for i := range 5 {
		gates[fmt.Sprintf("/asset/%d/v=1", i)] = make(chan struct{})
	}
	tr.segments = func(ctx context.Context, name enc.Name, _ fetch.SegmentOptions) (*fetch.SegmentResult, error) {
		mutex.Lock()
		gate := gates[name.String()]
		mutex.Unlock()
		select {
		case <-gate:
			return &fetch.SegmentResult{Payload: []byte(name.String()), SegmentCount: 2}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := newFetcher(t, tr, fetch.Config{Concurrency: 4})

	handles := make([]*fetch.Handle, 5)
	for i := range handles {
		handles[i] = f.Fetch(context.Background(), fmt.Sprintf("/asset/%d", i), fetch.ClassSegment)
	}
	eventually(t, func() bool { return tr.fetches.Load() == 4 })
	diag := f.Diagnostics()
	require.Equal(t, 4, diag.Running)
	require.Equal(t, 1, diag.Queued)
	require.NotContains(t, tr.fetchedNames(), "/asset/4/v=1")

	// one of the first four settles, then the fifth starts
	close(gates["/asset/2/v=1"])
	_, err := wait(t, handles[2])
	require.NoError(t, err)
	eventually(t, func() bool { return tr.fetches.Load() == 5 })

	// the fifth finishes before the rest of the first four
	close(gates["/asset/4/v=1"])
	res, err := wait(t, handles[4])
	require.NoError(t, err)
	require.Equal(t, []byte("/asset/4/v=1"), res.Payload)
	for _, i := range []int{0, 1, 3} {
		select {
		case <-handles[i].Done():
			require.Fail(t, "fetch settled before its segments arrived", i)
		default:
		}
	}

	for _, i := range []int{0, 1, 3} {
		close(gates[fmt.Sprintf("/asset/%d/v=1", i)])
		_, err := wait(t, handles[i])
		require.NoError(t, err)
	}
	require.Equal(t, 0, f.Diagnostics().Running)
}

func TestFetchTransportFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	tr.segments = func(context.Context, enc.Name, fetch.SegmentOptions) (*fetch.SegmentResult, error) {
		return nil, fmt.Errorf("consume: retransmission limit reached: %w", ndn.ErrDeadlineExceed)
	}
	sink := &sampleLog{}
	f := newFetcher(t, tr, fetch.Config{Sink: sink})

	_, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassTiming))
	var netErr *fetch.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, fetch.ClassTiming, netErr.Class)
	require.Equal(t, fetch.PlaceholderStatus, netErr.StatusCode)
	require.ErrorIs(t, err, ndn.ErrDeadlineExceed)

	samples := sink.all()
	require.Len(t, samples, 1)
	require.Equal(t, fetch.SampleFailure, samples[0].Kind)
	require.Equal(t, "/video/a/v=1", samples[0].Name)
	require.Contains(t, samples[0].Error, "retransmission limit")
	require.Equal(t, fetch.DefaultEstimatedCount, f.Session().EstimatedCount("/video/a"))
}

func TestFetchInvalidURI(t *testing.T) {
	tr := newFakeTransport()
	f := newFetcher(t, tr, fetch.Config{})

	for _, uri := range []string{"http://example.com/a", "", "ndn:", "/v=abc"} {
		_, err := wait(t, f.Fetch(context.Background(), uri, fetch.ClassOther))
		require.ErrorIs(t, err, fetch.ErrInvalidURI, uri)
	}
	require.Zero(t, tr.probes.Load())
	require.Zero(t, tr.metas.Load())
}

func TestFetchTelemetry(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	sink := &sampleLog{}
	panicky := fetch.SinkFunc(func(fetch.Sample) { panic("sink broken") })
	f := newFetcher(t, tr, fetch.Config{Sink: fetch.MultiSink{panicky, sink, fetch.LogSink{}}})

	res, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.NotNil(t, res)

	samples := sink.all()
	require.Len(t, samples, 1)
	s := samples[0]
	require.Equal(t, fetch.SampleSuccess, s.Kind)
	require.Equal(t, "/video/a/v=1", s.Name)
	require.Equal(t, fetch.ClassSegment, s.Class)
	require.Equal(t, f.Session().RTT().RTO(), s.RTO)
	require.Equal(t, f.Session().Window().Size(), s.Window)

	// a panicking sink alone does not break the fetch
	f = newFetcher(t, tr, fetch.Config{Sink: panicky})
	_, err = wait(t, f.Fetch(context.Background(), "/video/b", fetch.ClassSegment))
	require.NoError(t, err)
}

func TestFetchStore(t *testing.T) {
	tu.SetT(t)
	tr := newFakeTransport()
	tr.probe = versionProbe(1)
	store := tu.NoErr(storage.NewMemoryStore(16))
	sink := &sampleLog{}
	f := newFetcher(t, tr, fetch.Config{Store: store, Sink: sink})

	res, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.False(t, res.Cached)

	res, err = wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	require.True(t, res.Cached)
	require.Equal(t, []byte("/video/a/v=1"), res.Payload)
	require.Equal(t, int32(1), tr.fetches.Load())

	samples := sink.all()
	require.Len(t, samples, 2)
	require.False(t, samples[0].Cached)
	require.Equal(t, fetch.SampleSuccess, samples[1].Kind)
	require.True(t, samples[1].Cached)
	require.Equal(t, "/video/a/v=1", samples[1].Name)
	require.Equal(t, fetch.ClassSegment, samples[1].Class)
}

func TestFetchDiagnostics(t *testing.T) {
	tr := newFakeTransport()
	tr.probe = versionProbe(8)
	f := newFetcher(t, tr, fetch.Config{Concurrency: 3, Algorithm: "aimd", InitialWindow: 6})

	diag := f.Diagnostics()
	require.Equal(t, "unknown", diag.Convention)
	require.Equal(t, 3, diag.Limit)
	require.Equal(t, 6, diag.Window)
	require.Equal(t, "aimd-congestion-window", diag.Algorithm)

	_, err := wait(t, f.Fetch(context.Background(), "/video/a", fetch.ClassSegment))
	require.NoError(t, err)
	diag = f.Diagnostics()
	require.Equal(t, "naming", diag.Convention)
	require.Equal(t, "v=8", diag.Version)
	require.Equal(t, f.Session().ID(), diag.SessionID)
	require.Equal(t, f.Session().RTT().RTO(), diag.RTO)

	_, err = fetch.NewFetcher(tr, fetch.Config{Algorithm: "bbr"})
	require.ErrorIs(t, err, fetch.ErrConfig)
}
