package channel

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Endpoint is one end of a pipe. It is not safe for concurrent use.
type Endpoint struct {
	file   *os.File
	fd     int
	closed atomic.Bool
}

// NewPipe creates a pipe and returns its read and write ends.
func NewPipe() (r, w *Endpoint, err error) {
	rf, wf, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("pipe: %w", err)
	}
	return FromFile(rf), FromFile(wf), nil
}

// FromFile takes ownership of f. Calling f.Fd() is what puts the descriptor
// in blocking mode; the read, write and gift loops rely on that and must not
// go through SyscallConn, which would leave it non-blocking under the
// runtime poller.
func FromFile(f *os.File) *Endpoint {
	return &Endpoint{file: f, fd: int(f.Fd())}
}

// File returns the underlying file, e.g. to pass it to a child process.
func (e *Endpoint) File() *os.File {
	return e.file
}

// Fd returns the raw descriptor.
func (e *Endpoint) Fd() int {
	return e.fd
}

// Read implements io.Reader. A zero-length read from a non-empty p means the
// write end has been closed and is reported as io.EOF.
func (e *Endpoint) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	defer runtime.KeepAlive(e.file)

	for {
		n, err := unix.Read(e.fd, p)
		switch err {
		case nil:
			if n == 0 {
				return 0, io.EOF
			}
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if err := e.wait(unix.POLLIN); err != nil {
				return 0, err
			}
		default:
			return 0, os.NewSyscallError("read", err)
		}
	}
}

// Write implements io.Writer. It returns only after all of p has been
// written or a permanent error occurred.
func (e *Endpoint) Write(p []byte) (int, error) {
	defer runtime.KeepAlive(e.file)

	written := 0
	for written < len(p) {
		n, err := unix.Write(e.fd, p[written:])
		switch err {
		case nil:
			written += n
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if err := e.wait(unix.POLLOUT); err != nil {
				return written, err
			}
		default:
			return written, os.NewSyscallError("write", err)
		}
	}
	return written, nil
}

// Close closes the descriptor. It is idempotent.
func (e *Endpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (e *Endpoint) wait(events int16) error {
	fds := []unix.PollFd{{Fd: int32(e.fd), Events: events}} //nolint:gosec // descriptors fit in int32
	for {
		_, err := unix.Poll(fds, -1)
		switch err {
		case nil:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return os.NewSyscallError("poll", err)
		}
	}
}
