package giftbuf

import (
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/giftbuf/internal/mmap"
	"github.com/hupe1980/giftbuf/internal/resource"
)

type options struct {
	pagePages        int
	dictionary       string
	indexSeed        uint64
	output           io.Writer
	resources        *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures producers, consumers and pipelines.
type Option func(*options)

// WithPagePages sets the buffer length in pages. Producer and consumer
// must agree on it. Default 1.
func WithPagePages(n int) Option {
	return func(o *options) {
		o.pagePages = n
	}
}

// WithDictionary makes the consumer load the dictionary at path into an
// index instead of emitting candidates. Files ending in .zst, .lz4 or .gz
// are decompressed.
func WithDictionary(path string) Option {
	return func(o *options) {
		o.dictionary = path
	}
}

// WithIndexSeed fixes the level generator of the dictionary index.
func WithIndexSeed(seed uint64) Option {
	return func(o *options) {
		o.indexSeed = seed
	}
}

// WithOutput sets where the consumer emits candidates. Default os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithResourceController charges dictionary index memory against rc and
// paces consumer output with its emit limit.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20,
//	    EmitBytesPerSec:  1 << 20,
//	})
//	c, _ := giftbuf.NewConsumer(giftbuf.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &giftbuf.BasicMetricsCollector{}
//	stats, _ := giftbuf.Pipeline(ctx, "bob", 1, io.Discard, giftbuf.WithMetricsCollector(metrics))
//	fmt.Printf("Flushes: %d, Avg latency: %dns\n", metrics.GetStats().FlushCount, metrics.GetStats().FlushAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
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

func applyOptions(optFns []Option) (options, error) {
	o := options{
		pagePages:        1,
		output:           os.Stdout,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if o.pagePages <= 0 {
		return o, ErrInvalidPagePages
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.output == nil {
		o.output = os.Stdout
	}
	return o, nil
}

func (o *options) bufferLength() int {
	return o.pagePages * mmap.PageSize()
}
