// Package logx renders compile diagnostics and HTTP access lines for humans.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// UseColor resolves a logging.color mode for w. In auto mode only terminals
// get color.
func UseColor(w io.Writer, mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type styles struct {
	err     lipgloss.Style
	warn    lipgloss.Style
	ok      lipgloss.Style
	dim     lipgloss.Style
	caret   lipgloss.Style
	bold    lipgloss.Style
	enabled bool
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		err:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("8")),
		caret:   r.NewStyle().Foreground(lipgloss.Color("1")),
		bold:    r.NewStyle().Bold(true),
		enabled: color,
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return st.Render(text)
}

// ColorizeStatusWith renders an HTTP status code, colored by class when color is set.
func ColorizeStatusWith(status int, color bool) string {
	text := fmt.Sprintf("%d", status)
	if !color {
		return text
	}
	s := newStyles(io.Discard, true)
	switch {
	case status >= 500:
		return s.render(s.err, text)
	case status >= 400:
		return s.render(s.warn, text)
	default:
		return s.render(s.ok, text)
	}
}
