// Package text holds small string helpers for terminal rendering.
package text

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Clip shortens a string to maxWidth visual columns, appending "..." when
// it had to cut. Styled strings keep their ANSI escape sequences intact.
func Clip(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
