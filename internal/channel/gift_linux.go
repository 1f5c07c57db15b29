//go:build linux

package channel

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// ZeroCopy reports whether Gift moves pages instead of copying them.
const ZeroCopy = true

// Gift moves a prefix of p into the pipe with vmsplice(2) and SPLICE_F_GIFT
// and returns its length. p should start on a page boundary and span whole
// pages, otherwise the kernel copies instead of moving.
func (e *Endpoint) Gift(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	defer runtime.KeepAlive(e.file)

	iov := []unix.Iovec{{Base: &p[0]}}
	iov[0].SetLen(len(p))

	for {
		n, err := unix.Vmsplice(e.fd, iov, unix.SPLICE_F_GIFT)
		switch err {
		case nil:
			return n, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			if err := e.wait(unix.POLLOUT); err != nil {
				return 0, err
			}
		default:
			return 0, os.NewSyscallError("vmsplice", err)
		}
	}
}
