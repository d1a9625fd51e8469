// Package components provides reusable TUI widgets. The progress bar
// tracks schedule coverage for the header of the comparison screen.
package components

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

const defaultBarWidth = 30

// Progress renders how far through the schedule a tournament is
type Progress struct {
	view  *tview.TextView
	width int
}

// NewProgress creates a progress widget with the default bar width
func NewProgress() *Progress {
	return &Progress{
		view:  tview.NewTextView().SetDynamicColors(true),
		width: defaultBarWidth,
	}
}

// Primitive returns the widget's primitive
func (p *Progress) Primitive() tview.Primitive {
	return p.view
}

// SetWidth overrides the bar width in cells
func (p *Progress) SetWidth(width int) {
	if width > 0 {
		p.width = width
	}
}

// Update redraws the bar for the given played/total counts
func (p *Progress) Update(played, total int) {
	p.view.SetText(RenderBar(played, total, p.width))
}

// RenderBar draws a textual progress bar like [=====>....] 12/30 (40%)
func RenderBar(played, total, width int) string {
	if width <= 0 {
		width = defaultBarWidth
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(played) / float64(total)
		if ratio > 1 {
			ratio = 1
		}
	}

	filled := int(ratio * float64(width))
	bar := strings.Repeat("=", filled)
	if filled < width {
		bar += ">" + strings.Repeat(".", width-filled-1)
	}

	return fmt.Sprintf("[%s] %d/%d (%.0f%%)", bar, played, total, ratio*100)
}
