package fetch_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/named-data/ndnplay/fetch"
	enc "github.com/named-data/ndnplay/std/encoding"
	rdr "github.com/named-data/ndnplay/std/ndn/rdr_2024"
	tu "github.com/named-data/ndnplay/std/utils/testutils"
	"github.com/stretchr/testify/require"
)

// fakeTransport counts calls and delegates to configurable behaviors.
// A nil behavior blocks until ctx is done.
type fakeTransport struct {
	probe    func(ctx context.Context, name enc.Name) (enc.Name, error)
	meta     func(ctx context.Context, name enc.Name) (*rdr.MetaData, error)
	segments func(ctx context.Context, name enc.Name, opts fetch.SegmentOptions) (*fetch.SegmentResult, error)

	probes  atomic.Int32
	metas   atomic.Int32
	fetches atomic.Int32
	// loser strategies observing cancellation
	cancelled atomic.Int32

	mutex    sync.Mutex
	eps      []fetch.EndpointOptions
	segOpts  map[string]fetch.SegmentOptions
	segNames []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{segOpts: make(map[string]fetch.SegmentOptions)}
}

func (t *fakeTransport) Endpoint(opts fetch.EndpointOptions) fetch.Endpoint {
	t.mutex.Lock()
	t.eps = append(t.eps, opts)
	t.mutex.Unlock()
	return &fakeEndpoint{t: t}
}

func (t *fakeTransport) lastEndpoint() fetch.EndpointOptions {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.eps[len(t.eps)-1]
}

func (t *fakeTransport) segOptsOf(name string) (fetch.SegmentOptions, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	opts, ok := t.segOpts[name]
	return opts, ok
}

func (t *fakeTransport) fetchedNames() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]string(nil), t.segNames...)
}

func (t *fakeTransport) block(ctx context.Context) error {
	<-ctx.Done()
	t.cancelled.Add(1)
	return ctx.Err()
}

type fakeEndpoint struct {
	t *fakeTransport
}

func (e *fakeEndpoint) ResolveByConvention(ctx context.Context, name enc.Name) (enc.Name, error) {
	e.t.probes.Add(1)
	if e.t.probe == nil {
		return nil, e.t.block(ctx)
	}
	return e.t.probe(ctx, name)
}

func (e *fakeEndpoint) RetrieveMetadata(ctx context.Context, name enc.Name) (*rdr.MetaData, error) {
	e.t.metas.Add(1)
	if e.t.meta == nil {
		return nil, e.t.block(ctx)
	}
	return e.t.meta(ctx, name)
}

func (e *fakeEndpoint) FetchSegments(ctx context.Context, name enc.Name, opts fetch.SegmentOptions) (*fetch.SegmentResult, error) {
	e.t.fetches.Add(1)
	e.t.mutex.Lock()
	e.t.segOpts[name.String()] = opts
	e.t.segNames = append(e.t.segNames, name.String())
	e.t.mutex.Unlock()
	if e.t.segments == nil {
		return &fetch.SegmentResult{Payload: []byte(name.String()), SegmentCount: 1}, nil
	}
	return e.t.segments(ctx, name, opts)
}

// versionProbe answers the naming convention probe with version v.
func versionProbe(v uint64) func(context.Context, enc.Name) (enc.Name, error) {
	return func(_ context.Context, name enc.Name) (enc.Name, error) {
		return name.Append(enc.NewVersionComponent(v)), nil
	}
}

// versionMeta answers metadata requests with version v.
func versionMeta(v uint64) func(context.Context, enc.Name) (*rdr.MetaData, error) {
	return func(_ context.Context, name enc.Name) (*rdr.MetaData, error) {
		return &rdr.MetaData{Name: name.Append(enc.NewVersionComponent(v))}, nil
	}
}

func failWith(err error) func(context.Context, enc.Name) (*rdr.MetaData, error) {
	return func(context.Context, enc.Name) (*rdr.MetaData, error) {
		return nil, err
	}
}

func failProbe(err error) func(context.Context, enc.Name) (enc.Name, error) {
	return func(context.Context, enc.Name) (enc.Name, error) {
		return nil, err
	}
}

// sampleLog collects telemetry samples.
type sampleLog struct {
	mutex   sync.Mutex
	samples []fetch.Sample
}

func (l *sampleLog) Record(s fetch.Sample) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.samples = append(l.samples, s)
}

func (l *sampleLog) all() []fetch.Sample {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]fetch.Sample(nil), l.samples...)
}

func newFetcher(t *testing.T, tr fetch.Transport, config fetch.Config) *fetch.Fetcher {
	tu.SetT(t)
	return tu.NoErr(fetch.NewFetcher(tr, config))
}

func wait(t *testing.T, h *fetch.Handle) (*fetch.Result, error) {
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		require.FailNow(t, fmt.Sprintf("fetch of %s did not settle", h.URI))
	}
	return h.Wait()
}

func eventually(t *testing.T, cond func() bool) {
	require.Eventually(t, cond, 5*time.Second, time.Millisecond)
}
