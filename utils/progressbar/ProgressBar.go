// Package progressbar implements functionality of printing a progress
// bar to a terminal writer
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar implements a progress bar that must be manually
// managed. That is, the Display() function must be called whenever an
// updated progress bar should be written.
//
// ProgressBar does not use concurrency. The writer it displays to
// decides how the bar is redrawn, e.g. a uilive.Writer redraws the
// bar in place.
type ProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
	suffix          string
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% after max calls to Increment()
func New(out io.Writer, width, max int) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		out:             out,
		width:           float64(width),
		maxProgress:     float64(max),
		currentProgress: 0,
		startTime:       time.Now(),
	}
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// SetSuffix sets a message displayed after the bar, for example the
// most recent training loss
func (p *ProgressBar) SetSuffix(s string) {
	p.suffix = s
}

// Fraction returns the fraction of progress made so far
func (p *ProgressBar) Fraction() float64 {
	return p.currentProgress / p.maxProgress
}

// String returns the current rendering of the bar
func (p *ProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.Fraction() * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%v | elapsed: %v]",
		p.Fraction()*100, "%", time.Since(p.startTime).Truncate(time.Second)))

	if p.suffix != "" {
		p.bar.WriteString(" ")
		p.bar.WriteString(p.suffix)
	}
	return p.bar.String()
}

// Display writes the progress bar to its writer
func (p *ProgressBar) Display() error {
	_, err := fmt.Fprintln(p.out, p.String())
	return err
}
