package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Palette shared by every command.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
)

// styles renders text for one output stream. Plain when it is not a terminal.
type styles struct {
	color bool
}

func stylesFor(w io.Writer) styles {
	f, ok := w.(*os.File)
	return styles{color: ok && term.IsTerminal(int(f.Fd()))}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

func (s styles) title(text string) string {
	return s.render(lipgloss.NewStyle().Bold(true).Foreground(colorPrimary), text)
}

func (s styles) muted(text string) string {
	return s.render(lipgloss.NewStyle().Foreground(colorMuted), text)
}

func (s styles) success(text string) string {
	return s.render(lipgloss.NewStyle().Foreground(colorSuccess), text)
}

func (s styles) warning(text string) string {
	return s.render(lipgloss.NewStyle().Foreground(colorWarning), text)
}

func (s styles) failure(text string) string {
	return s.render(lipgloss.NewStyle().Foreground(colorError), text)
}

// section prints a bold header followed by an underline of the same width.
func (s styles) section(cmd *cobra.Command, name string) {
	cmd.Println(s.title(name))
	underline := make([]byte, lipgloss.Width(name))
	for i := range underline {
		underline[i] = '='
	}
	cmd.Println(s.muted(string(underline)))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
