// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uilive"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed to the screen.
// The bar is redrawn in place through a uilive.Writer.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	width           float64
	maxProgress     float64
	currentProgress float64
	status          string
	bar             strings.Builder
	startTime       time.Time
	writer          *uilive.Writer
}

// NewManualProgressBar returns a new ManualProgressBar that is width
// characters wide, reaches 100% after max calls to Increment, and is
// drawn to out.
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	if max < 1 {
		max = 1
	}
	writer := uilive.New()
	writer.Out = out

	return &ManualProgressBar{
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
		writer:      writer,
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// SetStatus sets a short message that is displayed after the bar
func (p *ManualProgressBar) SetStatus(status string) {
	p.status = status
}

// String returns the current rendering of the progress bar
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second))
	if p.status != "" {
		fmt.Fprintf(&p.bar, " %v", p.status)
	}

	return p.bar.String()
}

// Display redraws the progress bar
func (p *ManualProgressBar) Display() error {
	fmt.Fprintln(p.writer, p.String())
	return p.writer.Flush()
}

// Close draws the progress bar one final time. The bar should not be
// displayed again after Close.
func (p *ManualProgressBar) Close() error {
	return p.Display()
}
