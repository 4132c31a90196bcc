// Package gateway serves NDN objects to media players over HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/named-data/ndnplay/fetch"
	"github.com/named-data/ndnplay/std/engine"
	"github.com/named-data/ndnplay/std/engine/basic"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/ndn"
	"github.com/named-data/ndnplay/std/object"
	"github.com/named-data/ndnplay/std/object/storage"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Gateway struct {
	config  *Config
	engine  *basic.Engine
	store   ndn.Store
	fetcher *fetch.Fetcher
	metrics *Metrics
	server  *http.Server
}

// New creates a gateway connected to the configured transport.
func New(config *Config) (*Gateway, error) {
	face, err := engine.NewFaceFromUri(config.Transport, config.Insecure)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fetch.ErrConfig, err)
	}
	return NewWithEngine(config, engine.NewBasicEngine(face))
}

// NewWithEngine creates a gateway on an existing engine.
func NewWithEngine(config *Config, eng *basic.Engine) (*Gateway, error) {
	g := &Gateway{
		config:  config,
		engine:  eng,
		metrics: NewMetrics(),
	}

	store, err := openStore(config)
	if err != nil {
		return nil, err
	}
	g.store = store

	fc := config.FetchConfig()
	fc.Sink = fetch.MultiSink{fetch.LogSink{}, g.metrics}
	fc.Store = store
	fc.Clock = eng.Clock()
	transport := fetch.NewObjectTransport(object.NewClient(eng))
	if g.fetcher, err = fetch.NewFetcher(transport, fc); err != nil {
		g.closeStore()
		return nil, err
	}
	if len(config.FwHints) > 0 {
		if err := g.fetcher.UpdateForwardingHints(config.FwHints); err != nil {
			g.closeStore()
			return nil, err
		}
	}

	g.server = &http.Server{
		Addr:              config.Listen,
		Handler:           NewServer(g.fetcher, g.metrics),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return g, nil
}

func openStore(config *Config) (ndn.Store, error) {
	switch config.Store.Type {
	case "memory":
		return storage.NewMemoryStore(config.Store.Capacity)
	case "badger":
		return storage.NewBadgerStore(config.Store.Path)
	default:
		return nil, nil
	}
}

func (g *Gateway) String() string {
	return "gateway"
}

func (g *Gateway) Fetcher() *fetch.Fetcher {
	return g.fetcher
}

// Run starts the engine and serves HTTP on l (or the configured address
// if l is nil) until ctx is done.
func (g *Gateway) Run(ctx context.Context, l net.Listener) error {
	if err := g.engine.Start(); err != nil {
		g.closeStore()
		return fmt.Errorf("unable to start engine: %w", err)
	}
	defer g.closeStore()
	defer g.engine.Stop()

	if l == nil {
		var err error
		if l, err = net.Listen("tcp", g.config.Listen); err != nil {
			return err
		}
	}
	log.Info(g, "Gateway started", "listen", l.Addr(), "transport", g.config.Transport)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := g.server.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		log.Info(g, "Shutting down gateway")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return g.server.Shutdown(sctx)
	})
	return group.Wait()
}

func (g *Gateway) closeStore() {
	if g.store == nil {
		return
	}
	if err := g.store.Close(); err != nil {
		log.Warn(g, "Unable to close store", "err", err)
	}
	g.store = nil
}

// Close releases the store of a gateway that is not running.
func (g *Gateway) Close() {
	g.closeStore()
}
