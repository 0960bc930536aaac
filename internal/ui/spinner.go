package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// LineSpinner animates a single terminal line for headless commands.
type LineSpinner struct {
	out      io.Writer
	spinner  spinner.Spinner
	interval time.Duration

	mu      sync.Mutex
	message string
	done    chan struct{}
	stopped bool
}

func newLineSpinner(message string, s spinner.Spinner, interval time.Duration) *LineSpinner {
	return &LineSpinner{
		out:      os.Stdout,
		spinner:  s,
		interval: interval,
		message:  message,
		done:     make(chan struct{}),
	}
}

// NewConnectionSpinner is used while an attempt is in flight (Globe style).
func NewConnectionSpinner(message string) *LineSpinner {
	return newLineSpinner(message, spinner.Globe, 180*time.Millisecond)
}

// NewWaitingSpinner is used while waiting on the agent (Points style).
func NewWaitingSpinner(message string) *LineSpinner {
	return newLineSpinner(message, spinner.Points, 100*time.Millisecond)
}

func (s *LineSpinner) Start() {
	go func() {
		frames := s.spinner.Frames
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			if !s.stopped {
				fmt.Fprintf(s.out, "\r%s %s", SpinnerStyle.Render(frames[i%len(frames)]), s.message)
			}
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *LineSpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
		fmt.Fprint(s.out, "\r\033[K")
	}
}

func (s *LineSpinner) Success(message string) {
	s.Stop()
	fmt.Fprintf(s.out, "%s %s\n", SuccessStyle.Render(IconSuccess), message)
}

func (s *LineSpinner) Error(message string) {
	s.Stop()
	fmt.Fprintf(s.out, "%s %s\n", ErrorStyle.Render(IconError), ErrorStyle.Render(message))
}

func (s *LineSpinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// newAgentSpinner is the bubbles spinner shown inside the shell while the
// agent has not joined yet.
func newAgentSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return s
}
