// Command giftbuf prints every spelling of a name within a Hamming distance.
//
// The process forks a consumer copy of itself, connected by a pipe. The
// producer gifts page-sized buffers of candidates into the pipe with vmsplice;
// the consumer writes them to standard output, or loads a dictionary when one
// is given.
//
//	giftbuf [flags] <max-distance> <name> [dictionary]
//
// Exit status is 3 for usage errors, 4 for fatal allocation or I/O errors and
// 5 when the consumer exits abnormally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hupe1980/giftbuf"
	"github.com/hupe1980/giftbuf/internal/channel"
	"github.com/hupe1980/giftbuf/internal/permute"
	"github.com/hupe1980/giftbuf/internal/resource"
)

const (
	exitOK    = 0
	exitUsage = 3
	exitFatal = 4
	exitChild = 5

	roleConsumer = "consumer"

	// pipeFD is the descriptor the consumer inherits the read end on.
	pipeFD = 3
)

var errUsage = errors.New("usage")

type config struct {
	pagePages  int
	logLevel   string
	logFormat  string
	emitRate   int64
	arenaLimit int64
	inprocess  bool
	role       string

	maxDist    int
	name       string
	dictionary string
}

func parseArgs(args []string, stderr io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("giftbuf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.pagePages, "page-pages", 1, "buffer length in pages")
	fs.StringVar(&cfg.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "log format (text, json)")
	fs.Int64Var(&cfg.emitRate, "emit-rate", 0, "cap on output bytes per second (0 = unlimited)")
	fs.Int64Var(&cfg.arenaLimit, "arena-limit", 0, "cap on dictionary index memory in bytes (0 = unlimited)")
	fs.BoolVar(&cfg.inprocess, "inprocess", false, "run producer and consumer as goroutines in one process")
	fs.StringVar(&cfg.role, "role", "", "internal: process role")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] <max-distance> <name> [dictionary]\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return cfg, errUsage
	}

	usage := func(format string, a ...any) (config, error) {
		fmt.Fprintf(stderr, "%s: %s\n\n", fs.Name(), fmt.Sprintf(format, a...))
		fs.Usage()
		return cfg, errUsage
	}

	if fs.NArg() < 2 || fs.NArg() > 3 {
		return usage("unexpected number of arguments: %d", fs.NArg())
	}

	maxDist, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		return usage("invalid max distance %q", fs.Arg(0))
	}
	cfg.maxDist = maxDist
	cfg.name = fs.Arg(1)
	cfg.dictionary = fs.Arg(2)

	if err := permute.Validate(cfg.name, cfg.maxDist); err != nil {
		return usage("%v", err)
	}
	if cfg.pagePages <= 0 {
		return usage("-page-pages must be positive")
	}
	if cfg.role != "" && cfg.role != roleConsumer {
		return usage("unknown role %q", cfg.role)
	}
	if _, err := parseLevel(cfg.logLevel); err != nil {
		return usage("invalid log level %q", cfg.logLevel)
	}
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return usage("invalid log format %q", cfg.logFormat)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// childArgs rebuilds the command line for the consumer process.
func childArgs(cfg config) []string {
	args := []string{
		"-role=" + roleConsumer,
		"-page-pages=" + strconv.Itoa(cfg.pagePages),
		"-log-level=" + cfg.logLevel,
		"-log-format=" + cfg.logFormat,
		"-emit-rate=" + strconv.FormatInt(cfg.emitRate, 10),
		"-arena-limit=" + strconv.FormatInt(cfg.arenaLimit, 10),
		strconv.Itoa(cfg.maxDist),
		cfg.name,
	}
	if cfg.dictionary != "" {
		args = append(args, cfg.dictionary)
	}
	return args
}

func newLogger(cfg config) *giftbuf.Logger {
	level, _ := parseLevel(cfg.logLevel)
	if cfg.logFormat == "json" {
		return giftbuf.NewJSONLogger(level)
	}
	return giftbuf.NewTextLogger(level)
}

func (cfg config) options(logger *giftbuf.Logger, metrics giftbuf.MetricsCollector) []giftbuf.Option {
	opts := []giftbuf.Option{
		giftbuf.WithPagePages(cfg.pagePages),
		giftbuf.WithLogger(logger),
		giftbuf.WithMetricsCollector(metrics),
	}
	if cfg.emitRate > 0 || cfg.arenaLimit > 0 {
		opts = append(opts, giftbuf.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes: cfg.arenaLimit,
			EmitBytesPerSec:  cfg.emitRate,
		})))
	}
	return opts
}

func main() {
	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg config) int {
	logger := newLogger(cfg)
	metrics := &giftbuf.BasicMetricsCollector{}
	opts := cfg.options(logger, metrics)

	var code int
	switch {
	case cfg.role == roleConsumer:
		code = runConsumer(ctx, cfg, logger, opts)
	case cfg.inprocess:
		code = runInProcess(ctx, cfg, logger, opts)
	default:
		code = runProducer(ctx, cfg, logger, opts)
	}

	m := metrics.GetStats()
	logger.DebugContext(ctx, "metrics",
		"flushes", m.FlushCount,
		"flush_avg_ns", m.FlushAvgNanos,
		"fills", m.FillCount,
		"emitted_bytes", m.EmitBytes,
		"zero_copy", channel.ZeroCopy,
	)
	return code
}

func fatal(logger *giftbuf.Logger, err error) int {
	logger.Error("fatal", "error", err)
	return exitFatal
}

func runInProcess(ctx context.Context, cfg config, logger *giftbuf.Logger, opts []giftbuf.Option) int {
	if cfg.dictionary != "" {
		opts = append(opts, giftbuf.WithDictionary(cfg.dictionary))
	}
	if _, err := giftbuf.Pipeline(ctx, cfg.name, cfg.maxDist, os.Stdout, opts...); err != nil {
		return fatal(logger, err)
	}
	return exitOK
}

func runConsumer(ctx context.Context, cfg config, logger *giftbuf.Logger, opts []giftbuf.Option) int {
	src := channel.FromFile(os.NewFile(pipeFD, "pipe"))
	defer func() { _ = src.Close() }()

	if cfg.dictionary != "" {
		opts = append(opts, giftbuf.WithDictionary(cfg.dictionary))
	}
	c, err := giftbuf.NewConsumer(opts...)
	if err != nil {
		return fatal(logger, err)
	}
	if _, err := c.Run(ctx, src); err != nil {
		return fatal(logger, err)
	}
	return exitOK
}

func runProducer(ctx context.Context, cfg config, logger *giftbuf.Logger, opts []giftbuf.Option) int {
	p, err := giftbuf.NewProducer(cfg.name, cfg.maxDist, opts...)
	if err != nil {
		return fatal(logger, err)
	}

	self, err := os.Executable()
	if err != nil {
		return fatal(logger, fmt.Errorf("executable: %w", err))
	}

	r, w, err := channel.NewPipe()
	if err != nil {
		return fatal(logger, err)
	}

	child := exec.Command(self, childArgs(cfg)...) //nolint:gosec // re-exec of this binary
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.ExtraFiles = []*os.File{r.File()}

	if err := child.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return fatal(logger, fmt.Errorf("fork: %w", err))
	}

	// The read end belongs to the child now. Keeping it open here would hide
	// a dead consumer from the producer.
	_ = r.Close()

	fmt.Fprintf(os.Stderr, "Max edit distance: %d, Name: %q (Length: %d)\n", cfg.maxDist, cfg.name, len(cfg.name))

	_, runErr := p.Run(ctx, w)
	waitErr := child.Wait()

	return exitStatus(logger, child.Process.Pid, runErr, waitErr)
}

// exitStatus maps the producer and consumer outcomes to an exit code. A
// broken pipe is the producer noticing a dead consumer, so it is reported
// as a consumer failure.
func exitStatus(logger *giftbuf.Logger, pid int, runErr, waitErr error) int {
	switch {
	case waitErr != nil && (runErr == nil || errors.Is(runErr, syscall.EPIPE)):
		logger.Error("consumer exited abnormally", "pid", pid, "error", waitErr)
		return exitChild
	case runErr != nil:
		return fatal(logger, runErr)
	}
	return exitOK
}
