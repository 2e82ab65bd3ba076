package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer lets the spinner goroutine and the test share a buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestBatchSpinnerCountsDiagrams(t *testing.T) {
	var out syncBuffer
	s := newBatchSpinner(context.Background(), &out, 3)
	if got := s.Message(); got != "Rendering 0/3 diagrams..." {
		t.Errorf("initial message = %q", got)
	}

	s.Start()
	s.Advance(2, 3)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(out.String(), "Rendering 2/3 diagrams...") {
		t.Errorf("spinner never drew the progress: %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "\r") {
		t.Error("Stop should leave the line cleared")
	}
	if s.Cancelled() {
		t.Error("a stopped spinner is not cancelled")
	}
}

func TestSpinnerAdvanceConcurrent(t *testing.T) {
	s := newBatchSpinner(context.Background(), &syncBuffer{}, 50)
	s.Start()
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Advance(i, 50)
		}()
	}
	wg.Wait()
	if got, want := s.Message(), "Rendering 50/50 diagrams..."; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	s.Advance(10, 50)
	if got := s.Message(); got != "Rendering 50/50 diagrams..." {
		t.Errorf("stale count replaced the message: %q", got)
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &syncBuffer{}, "Saving diagram...")
	s.Start()
	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &syncBuffer{}, "Rendering...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeDraw(t *testing.T) {
	var out syncBuffer
	s := newSpinner(context.Background(), &out, "Rendering...")
	s.Start()
	s.Stop()
	if out.String() != "" {
		t.Errorf("a spinner stopped before its first frame should write nothing, got %q", out.String())
	}
}
