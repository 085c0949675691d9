package session

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Kamar-Folarin/github-trending/internal/models"
)

const helpTitle = "=== Github trending repos v1 ==="

// HelpEntry is one row of a help table
type HelpEntry struct {
	Command string
	Info    string
}

// Commands lists the interactive commands in display order
var Commands = []HelpEntry{
	{Command: "get <ID | NAME>", Info: "find a repository by id or name"},
	{Command: "list", Info: "list all repositories"},
	{Command: "refresh", Info: "force refresh the database"},
	{Command: "? help", Info: "print this message"},
	{Command: "q quit", Info: "exit"},
}

// Renderer formats snapshots for a particular writer. Colours are dropped
// automatically when the writer is not a terminal.
type Renderer struct {
	out    io.Writer
	header lipgloss.Style
	id     lipgloss.Style
	stars  lipgloss.Style
}

// NewRenderer returns a renderer whose colour profile follows out
func NewRenderer(out io.Writer) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:    out,
		header: r.NewStyle().Bold(true),
		id:     r.NewStyle().Foreground(lipgloss.Color("2")),
		stars:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Snapshot prints one snapshot followed by a blank line
func (r *Renderer) Snapshot(s *models.Snapshot) {
	fmt.Fprintln(r.out, r.header.Render(fmt.Sprintf("%s by %s", s.Name, s.Owner)))
	fmt.Fprintf(r.out, "ID: %s\n", r.id.Render(fmt.Sprint(s.ID)))
	fmt.Fprintf(r.out, "%s stars\n", r.stars.Render(fmt.Sprint(s.Stars)))
	if s.HasLanguage() {
		fmt.Fprintf(r.out, "Language: %s\n", s.LanguageOrEmpty())
	}
	fmt.Fprintln(r.out)
}

// Help prints the title and an aligned two-column table
func (r *Renderer) Help(entries []HelpEntry) {
	fmt.Fprintln(r.out, helpTitle)
	for _, line := range FormatHelp(entries) {
		fmt.Fprintln(r.out, line)
	}
	fmt.Fprintln(r.out)
}

// Line prints a plain message
func (r *Renderer) Line(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// FormatHelp pads every command to the longest one and joins it to its
// description with " - ".
func FormatHelp(entries []HelpEntry) []string {
	width := 0
	for _, e := range entries {
		if n := len(e.Command); n > width {
			width = n
		}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Command+strings.Repeat(" ", width-len(e.Command))+" - "+e.Info)
	}
	return lines
}
