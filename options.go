package assetstream

import (
	"log/slog"
	"time"
)

type options struct {
	allocator        Allocator
	metricsCollector MetricsCollector
	logger           *Logger
	now              func() time.Time
}

// Option configures the Manager constructor.
type Option func(*options)

// WithAllocator replaces the default resource.Controller allocator.
//
// Every cached payload is reserved through the allocator and released when
// it leaves the cache. An allocation failure fails the load with a
// *LoadError.
func WithAllocator(a Allocator) Option {
	return func(o *options) {
		o.allocator = a
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &assetstream.BasicMetricsCollector{}
//	mgr, _ := assetstream.New(cfg, exec, assetstream.WithMetricsCollector(metrics))
//	// ... use mgr ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, Avg latency: %dns\n", stats.LoadCount, stats.LoadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := assetstream.NewJSONLogger(slog.LevelInfo)
//	mgr, _ := assetstream.New(cfg, exec, assetstream.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClock overrides the time source used for access times and load
// durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}
