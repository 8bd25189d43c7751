package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Spinner shows a text animation while an operation of unknown length runs
type Spinner struct {
	writer   io.Writer
	message  string
	interval time.Duration
	noColor  bool

	mu     sync.Mutex
	active bool
	done   chan struct{}
	exited chan struct{}
}

// SpinnerOptions configures spinner behavior
type SpinnerOptions struct {
	Message  string
	NoColor  bool
	Interval time.Duration // default 100ms
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner
func NewSpinner(w io.Writer, opts SpinnerOptions) *Spinner {
	interval := opts.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	return &Spinner{
		writer:   w,
		message:  opts.Message,
		interval: interval,
		noColor:  opts.NoColor,
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.exited = make(chan struct{})
	go s.animate(s.done, s.exited)
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	exited := s.exited
	s.mu.Unlock()

	<-exited
	fmt.Fprint(s.writer, "\r\033[K")
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(message string) {
	s.Stop()
	WriteSuccess(s.writer, message, s.noColor)
}

// Error stops the spinner and shows an error message
func (s *Spinner) Error(message string) {
	s.Stop()
	red := color.New(color.FgRed, color.Bold)
	if s.noColor {
		red.DisableColor()
	}
	red.Fprintf(s.writer, "❌ %s\n", message)
}

func (s *Spinner) animate(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := color.New(color.FgCyan)
	if s.noColor {
		cyan.DisableColor()
	}

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-done:
			return
		case <-ticker.C:
			cyan.Fprintf(s.writer, "\r%s %s", spinnerFrames[frame], s.message)
		}
	}
}

// WithSpinner runs fn while a spinner is shown
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	spinner := NewSpinner(w, SpinnerOptions{Message: message, NoColor: noColor})
	spinner.Start()

	if err := fn(); err != nil {
		spinner.Error(message + " failed")
		return err
	}
	spinner.Success(message)
	return nil
}

// ProgressBar shows how many of a known number of steps are done
type ProgressBar struct {
	writer  io.Writer
	total   int
	current int
	width   int
	message string
	noColor bool
}

// ProgressBarOptions configures progress bar behavior
type ProgressBarOptions struct {
	Total   int
	Width   int // default 40
	Message string
	NoColor bool
}

// NewProgressBar creates a new progress bar
func NewProgressBar(w io.Writer, opts ProgressBarOptions) *ProgressBar {
	width := opts.Width
	if width == 0 {
		width = 40
	}
	return &ProgressBar{
		writer:  w,
		total:   opts.Total,
		width:   width,
		message: opts.Message,
		noColor: opts.NoColor,
	}
}

// Add increments the progress by n
func (p *ProgressBar) Add(n int) {
	p.current = min(p.current+n, p.total)
	p.render()
}

// Finish completes the progress bar with a success message
func (p *ProgressBar) Finish(message string) {
	p.current = p.total
	p.render()
	fmt.Fprintln(p.writer)
	WriteSuccess(p.writer, message, p.noColor)
}

func (p *ProgressBar) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total)
	filled := int(float64(p.width) * percent)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if p.noColor {
		cyan.DisableColor()
		gray.DisableColor()
	}

	var bar strings.Builder
	bar.WriteString("[")
	cyan.Fprint(&bar, strings.Repeat("█", filled))
	gray.Fprint(&bar, strings.Repeat("░", p.width-filled))
	bar.WriteString("]")

	message := ""
	if p.message != "" {
		message = " " + p.message
	}
	fmt.Fprintf(p.writer, "\r%s %3d%%%s", bar.String(), int(percent*100), message)
}
