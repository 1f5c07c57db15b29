package giftbuf

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/hupe1980/giftbuf/internal/arena"
	"github.com/hupe1980/giftbuf/internal/buffer"
	"github.com/hupe1980/giftbuf/internal/dict"
	"github.com/hupe1980/giftbuf/internal/resource"
	"github.com/hupe1980/giftbuf/internal/skiplist"
)

// Role names used in logs and errors.
const (
	RoleProducer = "producer"
	RoleConsumer = "consumer"
)

// Consumer reads buffer-sized chunks from the channel and emits them with
// their zero padding trimmed, or counts them against a dictionary.
type Consumer struct {
	opts options
}

// NewConsumer returns a consumer.
func NewConsumer(optFns ...Option) (*Consumer, error) {
	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	o.logger = o.logger.WithRole(RoleConsumer)

	return &Consumer{opts: o}, nil
}

// Run fills the buffer from src until it is full or src ends, emits or
// counts the chunk, wipes the buffer and repeats until end-of-stream.
// ctx is checked between chunks.
func (c *Consumer) Run(ctx context.Context, src io.Reader) (stats Stats, err error) {
	var d *dict.Dictionary
	if c.opts.dictionary != "" {
		d, err = c.openDictionary(ctx)
		if err != nil {
			return stats, err
		}
		defer func() {
			if cerr := d.Close(); cerr != nil && err == nil {
				err = opError(RoleConsumer, "close dictionary", cerr)
			}
		}()
	}

	buf := buffer.NewAligned(c.opts.bufferLength())
	defer func() {
		_ = buf.Release()
		c.opts.logger.LogSummary(ctx, stats)
	}()

	out := c.opts.output
	if c.opts.resources != nil {
		out = resource.NewRateLimitedWriter(ctx, out, c.opts.resources)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		start := time.Now()
		status, err := buf.FillFrom(src)
		c.opts.metricsCollector.RecordFill(buf.Cursor(), time.Since(start), err)
		c.opts.logger.LogFill(ctx, stats.Chunks, buf.Cursor(), status == buffer.FillEOF, err)
		if err != nil {
			return stats, opError(RoleConsumer, "read", err)
		}
		if buf.Cursor() > 0 {
			stats.Chunks++
		}

		payload := bytes.TrimRight(buf.Written(), "\x00")
		stats.Candidates += uint64(bytes.Count(payload, []byte{'\n'}))

		if d == nil {
			start = time.Now()
			n, err := buf.DrainTrimmed(out)
			c.opts.metricsCollector.RecordEmit(n, time.Since(start), err)
			stats.Bytes += int64(n)
			if err != nil {
				return stats, opError(RoleConsumer, "write", err)
			}
		}

		buf.Wipe()

		if status == buffer.FillEOF {
			return stats, nil
		}
	}
}

func (c *Consumer) openDictionary(ctx context.Context) (*dict.Dictionary, error) {
	poolOpts := []arena.Option{}
	if c.opts.resources != nil {
		poolOpts = append(poolOpts, arena.WithMemoryAcquirer(c.opts.resources))
	}
	listOpts := []skiplist.Option{skiplist.WithPoolOptions(poolOpts...)}
	if c.opts.indexSeed != 0 {
		listOpts = append(listOpts, skiplist.WithSeed(c.opts.indexSeed))
	}

	start := time.Now()
	d, err := dict.Open(c.opts.dictionary, dict.WithListOptions(listOpts...))

	path := c.opts.dictionary
	var stats dict.Stats
	if d != nil {
		path = d.Path()
		stats = d.Stats()
	}
	c.opts.metricsCollector.RecordDictionary(stats.Words, time.Since(start), err)
	c.opts.logger.LogDictionary(ctx, path, stats, err)
	if err != nil {
		return nil, opError(RoleConsumer, "open dictionary", err)
	}
	return d, nil
}
