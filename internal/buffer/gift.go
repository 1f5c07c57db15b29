package buffer

import "io"

// Gifter accepts ownership of pages. Gift transfers a prefix of p and
// reports how many bytes it took; after a successful call the caller must
// not touch those bytes again.
type Gifter interface {
	Gift(p []byte) (int, error)
}

// Gift hands every page of m to g and returns a fresh, zeroed mapped buffer
// of the same length. The receiver is released and must not be used again.
//
// Short transfers are continued until the whole region has moved.
// Interrupted and would-block conditions are retried. On any other error the
// receiver is left allocated and still owned by the caller, who should
// Release it; a prefix of its pages may already belong to g.
func (m *Mapped) Gift(g Gifter) (*Mapped, error) {
	m.mustLive()

	pending := m.data
	empty := 0
	for len(pending) > 0 {
		n, err := g.Gift(pending)
		if n > 0 {
			pending = pending[n:]
			empty = 0
		}
		if err != nil {
			if IsTransient(err) {
				continue
			}
			return nil, err
		}
		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return nil, io.ErrShortWrite
			}
		}
	}

	length := m.Len()
	if err := m.Release(); err != nil {
		return nil, err
	}
	return NewMapped(length)
}
