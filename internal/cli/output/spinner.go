package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows progress while a long call runs. On a terminal it
// animates in place; on anything else it prints the message once, so
// piped stderr and CI logs stay readable. The closing line carries the
// elapsed time.
type Spinner struct {
	w       io.Writer
	message string
	animate bool
	began   time.Time

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	started bool
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		animate: isTerminal(w),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// Start begins timing and, on a terminal, the animation.
func (s *Spinner) Start() {
	s.began = time.Now()
	if !s.animate {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}
	s.started = true
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Success ends the spinner with a success line.
func (s *Spinner) Success(message string) {
	s.finish("✓", message)
}

// Fail ends the spinner with a failure line.
func (s *Spinner) Fail(message string) {
	s.finish("✗", message)
}

// finish stops the animation and waits for its last frame, so the closing
// line never interleaves with it. Only the first call prints.
func (s *Spinner) finish(mark, message string) {
	s.once.Do(func() {
		close(s.done)
		if s.started {
			<-s.stopped
			fmt.Fprint(s.w, "\r\033[K")
		}
		elapsed := time.Duration(0)
		if !s.began.IsZero() {
			elapsed = time.Since(s.began).Round(100 * time.Millisecond)
		}
		fmt.Fprintf(s.w, "%s %s (%s)\n", mark, message, elapsed)
	})
}
