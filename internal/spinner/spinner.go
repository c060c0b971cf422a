// Package spinner renders a single live status line for a running job: an
// animated frame plus a message that the caller swaps as the job advances.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates on w until stopped. A disabled spinner (no TTY) ignores
// all calls, so callers never need to branch.
type Spinner struct {
	w       io.Writer
	enabled bool

	mu        sync.Mutex
	message   string
	lastWidth int

	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// New creates a spinner writing to w. Pass enabled=false when w is not a
// terminal; the spinner then becomes a no-op.
func New(w io.Writer, enabled bool) *Spinner {
	return &Spinner{
		w:       w,
		enabled: enabled,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
}

// Start begins animating with an initial message.
func (s *Spinner) Start(message string) {
	if !s.enabled {
		return
	}
	s.Update(message)

	go func() {
		i := 0
		for {
			select {
			case <-s.done:
				s.clearLine()
				close(s.cleared)
				return
			case <-time.After(80 * time.Millisecond):
				s.render(frames[i%len(frames)])
				i++
			}
		}
	}()
}

// Update swaps the message shown next to the spinner frame.
func (s *Spinner) Update(message string) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	if !s.enabled {
		return
	}
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.cleared
}

func (s *Spinner) render(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := frame + " " + s.message
	// Pad over the previous render so a shorter message leaves no residue.
	pad := s.lastWidth - len(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", pad)) //nolint:errcheck
	s.lastWidth = len(line)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.lastWidth)) //nolint:errcheck
}
