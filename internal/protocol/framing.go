package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tandemedit/tandem/internal/errors"
	"github.com/tidwall/gjson"
)

// MaxFrameSize is the largest message either side will put on the wire,
// including the trailing newline. Oversized outbound frames are dropped
// by the caller; an inbound line growing past this bound indicates a
// broken peer and fails the read.
const MaxFrameSize = 8 * 1024

// EncodeFrame marshals v and appends the newline terminator. Returns
// errors.ErrFrameTooLarge when the encoded frame exceeds MaxFrameSize.
func EncodeFrame(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling frame: %w", err)
	}

	if len(data)+1 > MaxFrameSize {
		return nil, errors.ErrFrameTooLarge
	}

	return append(data, '\n'), nil
}

// FrameType returns the top-level "type" field of a raw frame, or the
// empty string for sync messages, which have no control type.
func FrameType(data []byte) string {
	return gjson.GetBytes(data, "type").Str
}

// Splitter reassembles newline-delimited frames from arbitrary read
// chunks. TCP gives no message boundaries: a single read may carry half
// a frame or three and a half. Feed appends a chunk and returns every
// completed line; the trailing unterminated segment is retained for the
// next call.
type Splitter struct {
	buf []byte
}

// Feed consumes one read chunk. Empty lines are skipped. Returns
// errors.ErrFrameTooLarge once the retained segment outgrows
// MaxFrameSize; the connection should be torn down at that point.
func (s *Splitter) Feed(chunk []byte) ([][]byte, error) {
	s.buf = append(s.buf, chunk...)

	var frames [][]byte
	for {
		idx := -1
		for i, b := range s.buf {
			if b == '\n' {
				idx = i
				break
			}
		}
		if idx < 0 {
			break
		}

		line := s.buf[:idx]
		// Copy out: the retained buffer is reused across Feed calls.
		if len(line) > 0 {
			frame := make([]byte, len(line))
			copy(frame, line)
			frames = append(frames, frame)
		}
		s.buf = s.buf[idx+1:]
	}

	if len(s.buf) >= MaxFrameSize {
		s.buf = nil
		return frames, errors.ErrFrameTooLarge
	}

	return frames, nil
}

// Pending returns the number of buffered bytes awaiting a newline.
func (s *Splitter) Pending() int {
	return len(s.buf)
}
