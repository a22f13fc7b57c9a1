package ui

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	spotifyGreen = "#1DB954"
	okGreen      = "#04B575"
	errRed       = "#FF5F57"
	warnOrange   = "#FFA500"
	mutedGray    = "#626262"
)

var styles = palette{
	title: fg(spotifyGreen).Bold(true).MarginBottom(1),
	ok:    fg(okGreen).Bold(true),
	err:   fg(errRed).Bold(true),
	warn:  fg(warnOrange),
	help:  fg(mutedGray).Italic(true),
	link:  fg(spotifyGreen).Underline(true),
}

// palette is the stylesheet shared by every view.
type palette struct {
	title, ok, err, warn, help, link lipgloss.Style
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
