// Package ui provides terminal styling for CLI output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorWarn    lipgloss.Color = "#f9e2af"
	colorError   lipgloss.Color = "#f38ba8"
	colorMuted   lipgloss.Color = "#a6adc8"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle   = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// colorEnabled respects NO_COLOR and dumb terminals.
var colorEnabled = termenv.EnvColorProfile() != termenv.Ascii

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// RenderAccent renders headings and identifiers.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderPass renders confirmation messages.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn renders non-fatal notices.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail renders failure messages.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderMuted renders secondary detail.
func RenderMuted(s string) string { return render(mutedStyle, s) }
