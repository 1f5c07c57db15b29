// Package resource provides limits for the memory and output bandwidth a
// process may consume.
//
// # Memory
//
// Arena pools charge every segment they map against the controller and
// refund it on teardown. With a limit configured, a pool that would exceed
// it fails the allocation instead of growing.
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	pool, err := arena.New(arena.WithMemoryAcquirer(rc))
//
// # Output
//
// EmitBytesPerSec paces the consumer's standard output through a token
// bucket (golang.org/x/time/rate). Wrap the sink with [RateLimitedWriter].
//
// A nil *Controller is valid and imposes no limits.
package resource
