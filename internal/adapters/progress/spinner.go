package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-proxy/internal/usecase"
)

// SpinnerProgressReporter shows a spinner while a step waits for
// confirmation and prints one colored line per finished step
type SpinnerProgressReporter struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
	// duration of the step that just finished, shown on its Info line
	lastDuration time.Duration
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
}

// NewSpinnerProgressReporter creates a reporter writing to stderr so stdout
// carries only the result
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return NewSpinnerProgressReporterTo(os.Stderr)
}

// NewSpinnerProgressReporterTo creates a reporter writing to out
func NewSpinnerProgressReporterTo(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     out,
	}
}

// OnProgress starts the spinner for a step that is waiting and stops it
// once the step is confirmed
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if event.Spinner {
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}

	if r.spinner.Active() {
		r.spinner.Stop()
	}
	if n := len(r.stages); n > 0 && r.stages[n-1].Stage == event.Stage && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = time.Now()
		r.lastDuration = r.stages[n-1].EndTime.Sub(r.stages[n-1].StartTime)
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.withSpinnerPaused(func() {
		line := color.New(color.FgCyan).Sprint(message)
		if r.lastDuration > 0 {
			line += color.New(color.Faint).Sprintf(" (%s)", r.lastDuration.Round(time.Millisecond))
			r.lastDuration = 0
		}
		fmt.Fprintln(r.out, line)
	})
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.withSpinnerPaused(func() {
		color.New(color.FgRed).Fprintln(r.out, message)
	})
}

// Stop halts the spinner if a run ended mid-step
func (r *SpinnerProgressReporter) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerProgressReporter) withSpinnerPaused(fn func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fn()
	if wasActive {
		r.spinner.Start()
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
