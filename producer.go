package giftbuf

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/giftbuf/internal/buffer"
	"github.com/hupe1980/giftbuf/internal/permute"
)

// Channel is the producer's end of the byte channel. Gift takes ownership of
// a prefix of p and reports its length; Close signals end-of-stream.
type Channel interface {
	Gift(p []byte) (int, error)
	Close() error
}

// Stats summarizes one role's run.
type Stats struct {
	Candidates uint64 // lines appended by the producer or received by the consumer
	Chunks     int    // buffers gifted or filled
	Bytes      int64  // bytes gifted (padding included) or emitted (padding trimmed)
}

// Producer enumerates candidates into page-sized mapped buffers and gifts
// each full buffer to a channel.
type Producer struct {
	name    string
	maxDist int
	opts    options
}

// NewProducer validates name and maxDist and returns a producer.
func NewProducer(name string, maxDist int, optFns ...Option) (*Producer, error) {
	if err := permute.Validate(name, maxDist); err != nil {
		return nil, &ErrInvalidArgument{Name: name, MaxDistance: maxDist, cause: err}
	}

	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	o.logger = o.logger.WithRole(RoleProducer).WithName(name, maxDist)

	return &Producer{name: name, maxDist: maxDist, opts: o}, nil
}

// Run appends every candidate to the buffer, gifting the buffer to ch each
// time a line does not fit and once more at the end if anything is pending.
// It releases the buffer and closes ch before returning, on success and on
// error. ctx is checked between flushes; an in-flight gift is never
// interrupted.
func (p *Producer) Run(ctx context.Context, ch Channel) (stats Stats, err error) {
	buf, err := buffer.NewMapped(p.opts.bufferLength())
	if err != nil {
		_ = ch.Close()
		return stats, opError(RoleProducer, "create buffer", err)
	}

	defer func() {
		if buf != nil && buf.Strategy() != buffer.Unallocated {
			if rerr := buf.Release(); rerr != nil && err == nil {
				err = opError(RoleProducer, "release buffer", rerr)
			}
		}
		if cerr := ch.Close(); cerr != nil && err == nil {
			err = opError(RoleProducer, "close channel", cerr)
		}
		p.opts.logger.LogSummary(ctx, stats)
	}()

	flush := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := buf.Len()
		start := time.Now()
		next, err := buf.Gift(ch)
		p.opts.metricsCollector.RecordFlush(n, time.Since(start), err)
		p.opts.logger.LogFlush(ctx, stats.Chunks, n, err)
		if err != nil {
			return opError(RoleProducer, "gift", err)
		}

		buf = next
		stats.Chunks++
		stats.Bytes += int64(n)
		return nil
	}

	for candidate := range permute.Hamming(p.name, p.maxDist) {
		if !buf.AppendLine(candidate) {
			if err := flush(); err != nil {
				return stats, err
			}
			if !buf.AppendLine(candidate) {
				return stats, opError(RoleProducer, "append", ErrCandidateTooLarge)
			}
		}
		stats.Candidates++
	}

	if buf.Dirty() {
		if err := flush(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// IsContextError reports whether err stems from a cancelled or expired context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
