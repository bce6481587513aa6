package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/db"
	"github.com/vantagecv/synthgen/internal/metrics"
	"github.com/vantagecv/synthgen/internal/pass"
	"github.com/vantagecv/synthgen/internal/random"
)

// runPasses runs cfg.Passes passes, at most cfg.Workers at a time. Each pass
// gets its own scene built from the fixture and its own runner.
func runPasses(ctx context.Context, cfg config.Generator, out io.Writer) error {
	fx, err := loadFixture(cfg)
	if err != nil {
		return err
	}

	master, drawn, err := random.ResolveSeed(cfg.Seed, random.CryptoEntropy{})
	if err != nil {
		return err
	}
	slog.Info("synthgen starting", "seed", master, "from_entropy", drawn, "passes", cfg.Passes, "workers", cfg.Workers)

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		stop, err := serveMetrics(cfg.Metrics.Addr, m)
		if err != nil {
			return err
		}
		defer stop()
	}

	var store pass.ManifestStore
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer database.Close()
		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return err
		}
		store = database.Manifests()
		slog.Info("manifest store connected")
	}

	var (
		mu        sync.Mutex
		manifests []*pass.Manifest
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range cfg.Passes {
		g.Go(func() error {
			r := pass.NewRunner(cfg, fx.Build(cfg.Sweep.Marker), master)
			r.SetObserver(m)
			if store != nil {
				r.SetStore(store)
			}

			man, err := r.Run(gctx, i)
			if err != nil {
				return fmt.Errorf("pass %d: %w", i, err)
			}
			mu.Lock()
			manifests = append(manifests, man)
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	sort.Slice(manifests, func(a, b int) bool { return manifests[a].Index < manifests[b].Index })
	for _, man := range manifests {
		printManifest(out, man)
	}
	return err
}

func printManifest(out io.Writer, m *pass.Manifest) {
	fmt.Fprintf(out, "pass %d  id=%s seed=%d rand_calls=%d placed=%d/%d\n",
		m.Index, m.ID, m.Seed, m.RandCalls, m.Succeeded(), len(m.Placements))
	for _, p := range m.Placements {
		if !p.Success {
			fmt.Fprintf(out, "  %-8s %-14s FAILED %s\n", p.Strategy, p.Anchor, p.FailureReason)
			continue
		}
		fmt.Fprintf(out, "  %-8s %-14s %-14s %s vis=%.1f%%\n",
			p.Strategy, p.Anchor, p.InstanceID, p.Transform, p.Visibility)
	}
}

// serveMetrics exposes the registry on addr until the returned stop is called.
func serveMetrics(addr string, m *metrics.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server", "err", err)
		}
	}()
	slog.Info("metrics listening", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown", "err", err)
		}
	}, nil
}
