// Package output renders parse results, dates and occurrences for the CLI.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"rolodex/internal/command"
	"rolodex/internal/model"
)

const (
	ColorAccent = "75"  // Headers, kinds
	ColorMatch  = "220" // Highlighted spans
	ColorGray   = "245" // Labels, secondary text
	ColorRed    = "196" // Errors
)

// Styles holds the lipgloss styles used by a Printer.
type Styles struct {
	Kind   lipgloss.Style
	Header lipgloss.Style
	Match  lipgloss.Style
	Dim    lipgloss.Style
	Error  lipgloss.Style
}

// DefaultStyles returns colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Kind:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Header: lipgloss.NewStyle().Bold(true),
		Match:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorMatch)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Kind:   lipgloss.NewStyle(),
		Header: lipgloss.NewStyle(),
		Match:  lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
	}
}

// Printer writes human-readable output.
type Printer struct {
	w      io.Writer
	styles Styles
	plain  bool
	open   string
	close  string
	loc    *time.Location
}

// New returns a Printer that styles output only when w is a terminal and
// NO_COLOR is unset. open and close are the snippet highlight markers to
// replace with styling.
func New(w io.Writer, open, close string, loc *time.Location) *Printer {
	plain := !IsTTY(w) || DetectNoColor()
	return newPrinter(w, plain, open, close, loc)
}

// NewPlain returns a Printer that never styles.
func NewPlain(w io.Writer, open, close string, loc *time.Location) *Printer {
	return newPrinter(w, true, open, close, loc)
}

func newPrinter(w io.Writer, plain bool, open, close string, loc *time.Location) *Printer {
	if loc == nil {
		loc = time.Local
	}
	styles := DefaultStyles()
	if plain {
		styles = NoColorStyles()
	}
	return &Printer{w: w, styles: styles, plain: plain, open: open, close: close, loc: loc}
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Results prints one block per result, in order.
func (p *Printer) Results(results []command.ParseResult) {
	if len(results) == 0 {
		fmt.Fprintln(p.w, p.styles.Dim.Render("no results"))
		return
	}
	for i, r := range results {
		fmt.Fprintf(p.w, "%s %s\n",
			p.styles.Kind.Render(fmt.Sprintf("%-12s", r.Kind.String())),
			p.styles.Header.Render(r.Header))
		if r.Description != "" {
			fmt.Fprintf(p.w, "%s %s\n", strings.Repeat(" ", 12), p.Highlight(r.Description))
		}
		if i < len(results)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// Highlight swaps open/close markers in s for the match style. In plain
// mode the markers are dropped.
func (p *Printer) Highlight(s string) string {
	if p.open == "" || p.close == "" {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, p.open)
		if i < 0 {
			break
		}
		j := strings.Index(s[i+len(p.open):], p.close)
		if j < 0 {
			break
		}
		b.WriteString(s[:i])
		b.WriteString(p.styles.Match.Render(s[i+len(p.open) : i+len(p.open)+j]))
		s = s[i+len(p.open)+j+len(p.close):]
	}
	b.WriteString(s)
	return b.String()
}

// Date prints a parsed date with the input fragments it came from.
func (p *Printer) Date(d model.ParsedDate, found bool) {
	if !found {
		fmt.Fprintln(p.w, p.styles.Dim.Render("no date found"))
		return
	}
	fmt.Fprintln(p.w, p.styles.Header.Render(d.Describe(p.loc)))
	if texts := d.InputTexts(); len(texts) > 0 {
		fmt.Fprintln(p.w, p.styles.Dim.Render("from: "+strings.Join(texts, " | ")))
	}
}

// Occurrences prints one line per occurrence as "Mon Jan 2  Title  #tags".
func (p *Printer) Occurrences(occ []model.Occurrence) {
	if len(occ) == 0 {
		fmt.Fprintln(p.w, p.styles.Dim.Render("nothing upcoming"))
		return
	}
	for _, o := range occ {
		line := p.styles.Kind.Render(o.Start.In(p.loc).Format("Mon Jan _2")) + "  " + o.Title
		if len(o.Tags) > 0 {
			line += "  " + p.styles.Dim.Render(strings.Join(o.Tags, " "))
		}
		fmt.Fprintln(p.w, line)
	}
}

// Events prints one line per event as "schedule  Title  #tags".
func (p *Printer) Events(events []model.Event) {
	if len(events) == 0 {
		fmt.Fprintln(p.w, p.styles.Dim.Render("no events"))
		return
	}
	for _, e := range events {
		line := p.styles.Kind.Render(e.Date.Describe(p.loc)) + "  " + e.Title
		if len(e.Tags) > 0 {
			line += "  " + p.styles.Dim.Render(strings.Join(e.Tags, " "))
		}
		fmt.Fprintln(p.w, line)
	}
}

// Error prints err with its hint, if any.
func (p *Printer) Error(err error, hint string) {
	fmt.Fprintln(p.w, p.styles.Error.Render("error: "+err.Error()))
	if hint != "" {
		fmt.Fprintln(p.w, p.styles.Dim.Render("hint: "+hint))
	}
}
