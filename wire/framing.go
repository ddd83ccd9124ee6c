package wire

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
)

// maxFrameSize bounds a single JSON frame. Chat messages are short; anything
// larger is a protocol violation, not a legitimate frame.
const maxFrameSize = 64 * 1024

// Writer serializes whole frames onto a shared stream. Several goroutines
// may write to the same connection (poller, input loop, session replies),
// so each frame is marshalled first and emitted under a mutex as a single
// Write call to keep the newline framing intact.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame marshals v, appends the frame delimiter and writes until the
// whole frame has been flushed to the stream.
func (w *Writer) WriteFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	total := 0
	for total < len(data) {
		n, err := w.w.Write(data[total:])
		if err != nil {
			return err
		}
		total += n
	}
	return nil
}

// Reader splits an incoming stream into frames. Multiple frames may arrive
// concatenated in one read; bufio does the splitting so each line can be
// parsed independently.
type Reader struct {
	s *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), maxFrameSize)
	return &Reader{s: s}
}

// Next returns the next non-empty line, or the underlying read error.
// io.EOF signals an orderly peer close.
func (r *Reader) Next() ([]byte, error) {
	for r.s.Scan() {
		line := r.s.Bytes()
		if len(line) == 0 {
			continue
		}
		return line, nil
	}
	if err := r.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Decode parses a single frame into v. A failure here is a soft error: the
// caller drops the line and keeps reading.
func Decode(line []byte, v any) error {
	return json.Unmarshal(line, v)
}
