package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// PadRight pads or truncates a string to a fixed display width.
func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w > width {
		return runewidth.Truncate(str, width, "...")
	}
	return str + strings.Repeat(" ", width-w)
}

// Fit shortens str to at most width display cells, marking the cut with "…".
func Fit(str string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(str, width, "…")
}
