package transport

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tandemedit/tandem/internal/protocol"
)

// readChunkSize is the per-read buffer for the frame reassembler.
const readChunkSize = 4096

// frameConn pairs a socket with the newline reassembler and a short
// uuid for log correlation. The same reader is used for the handshake
// line and the steady-state read loop, so bytes the peer sent early are
// never stranded in a throwaway buffer.
type frameConn struct {
	c  net.Conn
	id string

	sp      protocol.Splitter
	pending [][]byte
	buf     []byte

	closeOnce sync.Once
}

func newFrameConn(c net.Conn) *frameConn {
	return &frameConn{
		c:   c,
		id:  uuid.NewString()[:8],
		buf: make([]byte, readChunkSize),
	}
}

// ReadFrame returns the next complete line, reading from the socket as
// needed. Partial reads accumulate in the splitter until a newline
// arrives.
func (f *frameConn) ReadFrame() ([]byte, error) {
	for len(f.pending) == 0 {
		n, err := f.c.Read(f.buf)
		if n > 0 {
			frames, ferr := f.sp.Feed(f.buf[:n])
			f.pending = append(f.pending, frames...)
			if ferr != nil {
				return nil, ferr
			}
		}
		if err != nil {
			if len(f.pending) > 0 {
				break
			}
			return nil, err
		}
	}

	frame := f.pending[0]
	f.pending = f.pending[1:]
	return frame, nil
}

// ReadFrameDeadline reads one frame under an absolute deadline, then
// clears the deadline. Used during handshakes.
func (f *frameConn) ReadFrameDeadline(d time.Duration) ([]byte, error) {
	f.c.SetReadDeadline(time.Now().Add(d))
	defer f.c.SetReadDeadline(time.Time{})
	return f.ReadFrame()
}

func (f *frameConn) Close() {
	f.closeOnce.Do(func() { f.c.Close() })
}
