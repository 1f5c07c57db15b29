//go:build unix && !linux

package channel

// ZeroCopy reports whether Gift moves pages instead of copying them.
const ZeroCopy = false

// Gift writes p to the pipe. Platforms without vmsplice(2) copy the payload.
func (e *Endpoint) Gift(p []byte) (int, error) {
	return e.Write(p)
}
