// Package giftbuf enumerates the candidate spellings of a name within a
// Hamming distance and streams them through a pipe by gifting whole pages to
// the kernel.
//
// # Roles
//
// A Producer appends candidates, one per line, to a page-sized anonymous
// mapping. When the next line does not fit, the remainder of the page is
// zeroed and the pages are handed to the channel with vmsplice and
// SPLICE_F_GIFT; a fresh mapping takes their place. No payload byte is copied
// between the producer and the pipe.
//
// A Consumer reads page-sized chunks from the other end of the pipe, drops the
// zero padding and writes the lines to its output. With WithDictionary it
// loads an arena-backed skip-list index of the dictionary instead and only
// counts the candidates.
//
// # Quick Start
//
// In one process:
//
//	stats, err := giftbuf.Pipeline(ctx, "bob", 1, os.Stdout)
//
// Across processes the giftbuf command re-executes itself as the consumer and
// wires the two roles to the ends of one pipe.
//
// # Observability
//
//	logger := giftbuf.NewTextLogger(slog.LevelDebug)
//	metrics := &giftbuf.BasicMetricsCollector{}
//	stats, err := giftbuf.Pipeline(ctx, "bob", 2, os.Stdout,
//	    giftbuf.WithLogger(logger),
//	    giftbuf.WithMetricsCollector(metrics),
//	)
package giftbuf
