package tools

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/named-data/ndnplay/fetch"
	"github.com/named-data/ndnplay/std/engine"
	"github.com/named-data/ndnplay/std/log"
	"github.com/named-data/ndnplay/std/object"
	"github.com/named-data/ndnplay/std/utils/toolutils"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type CatChunks struct {
	outDir      string
	class       string
	concurrency int
	algorithm   string
	window      int
	hints       []string
	insecure    bool
}

func (cc *CatChunks) String() string {
	return "fetch"
}

// parseHints parses PREFIX=HINT flags.
func parseHints(flags []string) (map[string]string, error) {
	hints := make(map[string]string, len(flags))
	for _, f := range flags {
		prefix, hint, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("%w: forwarding hint must be PREFIX=HINT: %s", fetch.ErrConfig, f)
		}
		hints[prefix] = hint
	}
	return hints, nil
}

// outFile is the file an object is written to in the output directory.
func outFile(dir string, uri string) string {
	name := strings.Trim(strings.TrimPrefix(uri, "ndn:"), "/")
	return filepath.Join(dir, filepath.FromSlash(name))
}

func (cc *CatChunks) run(_ *cobra.Command, args []string) {
	if len(args) > 1 && cc.outDir == "" {
		log.Fatal(cc, "Multiple names need an output directory (--out)")
		return
	}

	hints, err := parseHints(cc.hints)
	if err != nil {
		log.Fatal(cc, "Invalid forwarding hint", "err", err)
		return
	}

	// start face and engine
	face, err := engine.NewFaceFromUri(engine.GetClientConfig().TransportUri, cc.insecure)
	if err != nil {
		log.Fatal(cc, "Unable to create face", "err", err)
		return
	}
	app := engine.NewBasicEngine(face)
	if err = app.Start(); err != nil {
		log.Fatal(cc, "Unable to start engine", "err", err)
		return
	}
	defer app.Stop()

	fetcher, err := fetch.NewFetcher(fetch.NewObjectTransport(object.NewClient(app)), fetch.Config{
		Concurrency:   cc.concurrency,
		Algorithm:     cc.algorithm,
		InitialWindow: cc.window,
	})
	if err != nil {
		log.Fatal(cc, "Unable to create fetcher", "err", err)
		return
	}
	if err = fetcher.UpdateForwardingHints(hints); err != nil {
		log.Fatal(cc, "Invalid forwarding hint", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t1 := time.Now()
	byteCount := 0
	group, gctx := errgroup.WithContext(ctx)
	results := make([]*fetch.Result, len(args))
	for i, uri := range args {
		class := fetch.ParseRequestClass(cc.class)
		if cc.class == "" {
			class = fetch.InferRequestClass(uri)
		}
		h := fetcher.Fetch(gctx, uri, class)
		group.Go(func() error {
			res, err := h.Wait()
			if err != nil {
				return fmt.Errorf("%s: %w", uri, err)
			}
			results[i] = res
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		log.Fatal(cc, "Error fetching object", "err", err)
		return
	}
	t2 := time.Now()

	for i, res := range results {
		byteCount += len(res.Payload)
		if cc.outDir == "" {
			os.Stdout.Write(res.Payload)
			continue
		}
		path := outFile(cc.outDir, args[i])
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Fatal(cc, "Unable to create directory", "err", err)
			return
		}
		if err := os.WriteFile(path, res.Payload, 0o644); err != nil {
			log.Fatal(cc, "Unable to write object", "path", path, "err", err)
			return
		}
	}

	// statistics
	diag := fetcher.Diagnostics()
	p := toolutils.StatusPrinter{File: os.Stderr, Padding: 12}
	for _, res := range results {
		p.Print("object", res.Name)
		p.Print("segments", res.SegmentCount)
	}
	p.Print("content", fmt.Sprintf("%d bytes", byteCount))
	p.Print("time", t2.Sub(t1))
	p.Print("throughput", fmt.Sprintf("%f Mbit/s", float64(byteCount*8)/t2.Sub(t1).Seconds()/1e6))
	p.Print("convention", diag.Convention)
	p.Print("srtt", diag.SRTT)
	p.Print("rto", diag.RTO)
	p.Print("cwnd", diag.Window)
}
