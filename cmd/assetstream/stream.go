package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hupe1980/assetstream"
	"github.com/hupe1980/assetstream/executor"
	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/prommetrics"
	"github.com/hupe1980/assetstream/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type streamOptions struct {
	store       *storeOptions
	ConfigFile  string
	Manifest    string
	IOLimit     int64
	MetricsAddr string
	LogLevel    string
	JSONLogs    bool
	Timeout     time.Duration
}

// manifest describes a streaming session: where the viewer stands, which
// regions to register and which assets to request directly.
type manifest struct {
	Viewer   *model.Vec3    `yaml:"viewer"`
	Regions  []model.Region `yaml:"regions"`
	Requests []requestSpec  `yaml:"requests"`
}

type requestSpec struct {
	ID       string             `yaml:"id"`
	Type     model.ResourceType `yaml:"type"`
	Priority string             `yaml:"priority"`
	Distance float64            `yaml:"distance"`
	LOD      int                `yaml:"lod"`
}

func (r requestSpec) descriptor() (assetstream.Descriptor, error) {
	p, err := model.ParsePriority(r.Priority)
	if err != nil {
		return assetstream.Descriptor{}, err
	}
	if r.LOD < 0 || r.LOD > int(assetstream.LOD3) {
		return assetstream.Descriptor{}, fmt.Errorf("invalid lod %d for %q", r.LOD, r.ID)
	}
	return assetstream.Descriptor{
		ID:       r.ID,
		Type:     r.Type,
		Priority: p,
		LOD:      assetstream.LODLevel(r.LOD),
		Distance: r.Distance,
	}, nil
}

func loadManifest(path string) (manifest, error) {
	var m manifest
	if path == "" {
		return m, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// parseRef parses a "<type>/<id>" argument.
func parseRef(s string) (requestSpec, error) {
	typ, id, ok := strings.Cut(s, "/")
	if !ok || id == "" {
		return requestSpec{}, fmt.Errorf("%w: expected <type>/<id>, got %q", errUsage, s)
	}
	t, err := model.ParseResourceType(typ)
	if err != nil {
		return requestSpec{}, err
	}
	return requestSpec{ID: id, Type: t}, nil
}

func runStream(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts := &streamOptions{
		store:    newStoreOptions(),
		LogLevel: "info",
	}

	fs := pflag.NewFlagSet("stream", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	opts.store.AddFlags(fs)
	fs.StringVar(&opts.ConfigFile, "config", opts.ConfigFile,
		"YAML manager configuration. Defaults apply when empty.")
	fs.StringVar(&opts.Manifest, "manifest", opts.Manifest,
		"YAML manifest with viewer position, regions and requests.")
	fs.Int64Var(&opts.IOLimit, "io-limit", opts.IOLimit,
		"Maximum blob read throughput in bytes per second. 0 disables the limit.")
	fs.StringVar(&opts.MetricsAddr, "metrics-addr", opts.MetricsAddr,
		"Address to serve Prometheus metrics on while streaming.")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel,
		"Log level: debug, info, warn or error.")
	fs.BoolVar(&opts.JSONLogs, "log-json", opts.JSONLogs,
		"Emit logs as JSON.")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Overall deadline for requests and prefetch. 0 means no deadline.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, handlerOpts)
	if opts.JSONLogs {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	}
	logger := assetstream.NewLogger(handler)

	cfg := assetstream.DefaultConfig()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = assetstream.LoadConfig(opts.ConfigFile); err != nil {
			return err
		}
	}

	man, err := loadManifest(opts.Manifest)
	if err != nil {
		return err
	}
	for _, arg := range fs.Args() {
		r, err := parseRef(arg)
		if err != nil {
			return err
		}
		man.Requests = append(man.Requests, r)
	}

	store, err := opts.store.Open(ctx)
	if err != nil {
		return err
	}

	rc := resource.NewController(resource.Config{
		MaxConcurrentLoads: int64(cfg.MaxConcurrentLoads),
		IOLimitBytesPerSec: opts.IOLimit,
	})

	reg := prometheus.NewRegistry()
	mc := prommetrics.New(reg)

	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	mgr, err := assetstream.New(cfg, executor.New(store, executor.WithController(rc)),
		assetstream.WithAllocator(rc),
		assetstream.WithMetricsCollector(mc),
		assetstream.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	failed := stream(runCtx, mgr, man, cfg.MaxConcurrentLoads, logger)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	st := mgr.Stats()
	mgr.Shutdown(shutdownCtx)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(man.Requests))
	}
	return nil
}

// stream registers the manifest regions and issues its requests. It returns
// the number of failed requests; region prefetch failures are only logged.
func stream(ctx context.Context, mgr *assetstream.Manager, man manifest, limit int, logger *assetstream.Logger) int {
	if man.Viewer != nil {
		mgr.SetViewerPosition(*man.Viewer)
	}

	for _, r := range man.Regions {
		if err := mgr.RegisterRegion(ctx, r); err != nil {
			logger.LogRegion(ctx, "register", r.ID, len(r.Resources), err)
		}
	}

	errs := make([]error, len(man.Requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, r := range man.Requests {
		g.Go(func() error {
			d, err := r.descriptor()
			if err != nil {
				logger.WarnContext(gctx, "invalid request", "id", r.ID, "error", err)
				errs[i] = err
				return nil
			}
			_, errs[i] = mgr.Request(gctx, d)
			return nil
		})
	}
	_ = g.Wait()

	if err := mgr.WaitPrefetch(ctx); err != nil {
		logger.WarnContext(ctx, "prefetch incomplete", "error", err)
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	return failed
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *assetstream.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
