package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a batch renders. The message can be
// replaced while it spins; the batch renderer uses that to count finished
// diagrams. The spinner stops on Stop or when its context is cancelled.
type Spinner struct {
	w   io.Writer
	ctx context.Context

	mu      sync.Mutex
	message string
	done    int
	drawn   int // width of the widest line drawn, for clearing

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// newSpinner creates a spinner writing to w.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		ctx:     ctx,
		message: message,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// newBatchSpinner creates a spinner counting rendered diagrams out of total.
func newBatchSpinner(ctx context.Context, w io.Writer, total int) *Spinner {
	return newSpinner(ctx, w, batchMessage(0, total))
}

func batchMessage(done, total int) string {
	return fmt.Sprintf("Rendering %d/%d diagrams...", done, total)
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Advance reports done of total diagrams rendered. It is safe to call from
// the batch's worker goroutines; a count lower than one already shown is
// ignored.
func (s *Spinner) Advance(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if done < s.done {
		return
	}
	s.done = done
	s.message = batchMessage(done, total)
}

// Message returns the current text.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop ends the animation and clears the line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.stopped
		s.clearLine()
	})
}

// Cancelled reports whether the spinner's context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := frame + " " + s.message
	s.drawn = max(s.drawn, len([]rune(line)))
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.drawn))
	s.drawn = 0
}
