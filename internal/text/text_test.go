package text

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestClip(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxWidth int
		want     string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact width unchanged", "hello", 5, "hello"},
		{"long string clipped", "hello world", 8, "hello..."},
		{"tiny width", "hello", 3, "..."},
		{"empty string", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clip(tt.in, tt.maxWidth); got != tt.want {
				t.Errorf("Clip(%q, %d) = %q, want %q", tt.in, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestClipStyled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("a very long styled heading")

	got := Clip(styled, 10)
	if lipgloss.Width(got) > 10 {
		t.Errorf("clipped width = %d, want <= 10", lipgloss.Width(got))
	}
	if !strings.HasSuffix(stripAnsi(got), "...") {
		t.Errorf("clipped string %q does not end with ellipsis", got)
	}
}

func stripAnsi(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
