package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
)

const (
	totalSteps = 2
	minBar     = 10
	maxBar     = 40
)

var stepOf = map[Stage]int{
	StageExtract:   1,
	StageSummarize: 2,
	StageComplete:  2,
}

// StepRenderer reports the two pipeline steps on a single status line.
// On a terminal the line is redrawn in place with a bar for the whole run;
// otherwise every event is printed on its own line.
type StepRenderer struct {
	out   io.Writer
	start time.Time
	tty   bool
	width int
	last  Event
	drawn bool
}

// NewStepRenderer writes to f, sizing the bar to the terminal when f is one.
func NewStepRenderer(f *os.File) *StepRenderer {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	width := 80
	if tty {
		if w, _, err := term.GetSize(f.Fd()); err == nil && w > 0 {
			width = w
		}
	}
	return newStepRenderer(f, tty, width)
}

func newStepRenderer(out io.Writer, tty bool, width int) *StepRenderer {
	return &StepRenderer{out: out, start: time.Now(), tty: tty, width: width}
}

// Handle satisfies Callback.
func (r *StepRenderer) Handle(e Event) {
	e.Elapsed = time.Since(r.start)
	if e.Stage == StageComplete {
		e.Percent = 1
	}
	r.last = e

	if !r.tty {
		fmt.Fprintf(r.out, "%s %s %s\n", formatElapsed(e.Elapsed), stepLabel(e.Stage), e.Message)
		return
	}
	r.clear()
	fmt.Fprint(r.out, r.statusLine(e))
	r.drawn = true
}

// Finish erases the status line and prints how the run ended.
func (r *StepRenderer) Finish() {
	r.clear()
	e := r.last
	switch {
	case e.Error != nil:
		fmt.Fprintf(r.out, "%s failed after %s: %s\n", stepLabel(e.Stage), formatElapsed(e.Elapsed), e.Message)
	case e.Stage == StageComplete:
		fmt.Fprintf(r.out, "%s from %s (%d words, %s)\n", e.Message, e.Source, e.Words, formatElapsed(e.Elapsed))
	}
}

func (r *StepRenderer) clear() {
	if r.tty && r.drawn {
		fmt.Fprint(r.out, "\r\033[2K")
		r.drawn = false
	}
}

func (r *StepRenderer) statusLine(e Event) string {
	head := fmt.Sprintf("%s %s ", stepLabel(e.Stage), e.Message)
	tail := " " + formatElapsed(e.Elapsed)

	// Two columns are taken by the bar brackets.
	w := r.width - len(head) - len(tail) - 2
	if w < minBar {
		return head + strings.TrimSpace(tail)
	}
	if w > maxBar {
		w = maxBar
	}
	return head + renderBar(overall(e), w) + tail
}

func stepLabel(s Stage) string {
	return fmt.Sprintf("[%d/%d]", stepOf[s], totalSteps)
}

// overall maps a step-local percent onto the whole run.
func overall(e Event) float64 {
	n, ok := stepOf[e.Stage]
	if !ok {
		return 0
	}
	return (float64(n-1) + clamp(e.Percent)) / totalSteps
}

func clamp(p float64) float64 {
	return min(max(p, 0), 1)
}

// renderBar draws a [====----] bar of the given inner width.
func renderBar(pct float64, width int) string {
	filled := int(clamp(pct) * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

// formatElapsed formats a duration as M:SS.
func formatElapsed(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
