// Package stream turns the analysis endpoint's chunked byte stream into an
// ordered sequence of typed events. The source delivers newline-delimited,
// "data: "-prefixed JSON records with no alignment between chunk boundaries
// and record boundaries, so the decoder buffers incomplete trailing fragments
// across reads.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/policyready/policyctl/internal/models"
)

// ErrInterrupted reports that the byte source failed before the stream
// reached a terminal record. Distinct from a clean end of data.
var ErrInterrupted = errors.New("analysis stream interrupted")

const recordMarker = "data:"

// Decoder reads analysis events lazily from r. It is single-use: once Next
// returns an error the sequence is over and cannot be restarted.
type Decoder struct {
	r       io.Reader
	buf     []byte
	queue   []*models.AnalysisEvent
	chunk   []byte
	readErr error
	done    bool
}

// NewDecoder wraps a byte source, typically a streaming HTTP response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:     r,
		chunk: make([]byte, 8192),
	}
}

// Next returns the next event in arrival order. It blocks on the underlying
// read between chunks; cancel ctx to abandon a stalled source. A clean end
// of data returns io.EOF. A source failure before end of data returns an
// error wrapping ErrInterrupted.
func (d *Decoder) Next(ctx context.Context) (*models.AnalysisEvent, error) {
	for {
		if len(d.queue) > 0 {
			ev := d.queue[0]
			d.queue = d.queue[1:]
			return ev, nil
		}
		if d.done {
			if d.readErr != nil {
				return nil, d.readErr
			}
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			d.done = true
			d.readErr = fmt.Errorf("%w: %w", ErrInterrupted, err)
			return nil, d.readErr
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
			d.drainLines()
		}
		if err != nil {
			d.done = true
			if err == io.EOF {
				// Flush a final record that arrived without a trailing newline.
				d.consumeLine(d.buf)
				d.buf = nil
			} else {
				d.readErr = fmt.Errorf("%w: %w", ErrInterrupted, err)
			}
		}
	}
}

// Interrupted reports whether the source failed mid-stream. Only meaningful
// after Next has returned an error.
func (d *Decoder) Interrupted() bool {
	return d.readErr != nil
}

// drainLines parses every complete line in the buffer, keeping the trailing
// fragment for the next chunk.
func (d *Decoder) drainLines() {
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx == -1 {
			return
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]
		d.consumeLine(line)
	}
}

// consumeLine parses one framed record. Blank lines (record separators) and
// lines without the record marker are skipped. A record that fails to parse
// is dropped; one bad record never aborts the stream.
func (d *Decoder) consumeLine(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	if !bytes.HasPrefix(line, []byte(recordMarker)) {
		return
	}
	payload := bytes.TrimSpace(line[len(recordMarker):])
	if len(payload) == 0 {
		return
	}

	ev, err := models.ParseRecord(payload)
	if err != nil {
		slog.Debug("dropping malformed record", "error", err)
		return
	}
	d.queue = append(d.queue, ev)
}
