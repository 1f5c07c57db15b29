package giftbuf

import (
	"context"
	"io"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/giftbuf/internal/channel"
)

// PipelineStats holds the totals of both roles.
type PipelineStats struct {
	Producer Stats
	Consumer Stats
}

// Pipeline runs a producer and a consumer in one process, connected by an OS
// pipe. Candidates are emitted to out unless WithDictionary is given.
//
// Each role owns one end of the pipe and closes it when done, so a failing
// consumer unblocks the producer and a failing producer ends the consumer's
// stream.
func Pipeline(ctx context.Context, name string, maxDist int, out io.Writer, optFns ...Option) (PipelineStats, error) {
	var stats PipelineStats

	p, err := NewProducer(name, maxDist, optFns...)
	if err != nil {
		return stats, err
	}
	c, err := NewConsumer(append(slices.Clip(optFns), WithOutput(out))...)
	if err != nil {
		return stats, err
	}

	r, w, err := channel.NewPipe()
	if err != nil {
		return stats, opError("pipeline", "pipe", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var perr, cerr error
	g.Go(func() error {
		stats.Producer, perr = p.Run(gctx, w)
		return perr
	})

	g.Go(func() error {
		defer func() { _ = r.Close() }()
		stats.Consumer, cerr = c.Run(gctx, r)
		return cerr
	})

	err = g.Wait()

	// A consumer failure surfaces in the producer as EPIPE, and a producer
	// failure cancels the consumer. Report the root cause.
	switch {
	case cerr != nil && (perr == nil || !IsContextError(cerr)):
		return stats, cerr
	case perr != nil:
		return stats, perr
	}
	return stats, err
}
