package ui

import (
	"fmt"

	"github.com/beadscope/beadscope/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorOpen       = 245 // medium gray
	colorInProgress = 74  // blue
	colorBlocked    = 167 // red
	colorClosed     = 107 // green
	colorMuted      = 245 // medium gray
	colorAccent     = 74  // blue
)

var noColor bool

// RenderStatus returns the node's status glyph and label colored for its
// state. A status outside the known set renders as its raw string in the
// muted color, with no glyph.
func RenderStatus(s model.Status) string {
	var label string
	var color int
	switch s {
	case model.StatusOpen:
		label, color = "○ open", colorOpen
	case model.StatusInProgress:
		label, color = "◐ in_progress", colorInProgress
	case model.StatusBlocked:
		label, color = "✗ blocked", colorBlocked
	case model.StatusClosed:
		label, color = "● closed", colorClosed
	default:
		label, color = string(s), colorMuted
	}
	return render(label, color)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(s, colorAccent)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(s, colorMuted)
}

// RenderProgress formats a progress summary like "3/5 (60%)".
func RenderProgress(p model.Progress) string {
	return RenderMuted(fmt.Sprintf("%d/%d (%d%%)", p.Completed, p.Total, p.PercentComplete))
}

func render(s string, color int) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
