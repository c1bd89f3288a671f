// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/coracle/shiftclaim/internal/engine"
	"github.com/coracle/shiftclaim/internal/rules"
	"github.com/coracle/shiftclaim/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCycle outputs the outcome of every notification in a cycle.
func (p *Printer) PrintCycle(c engine.Cycle) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cycle:    %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", c.Started.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Claimed:  %d of %d\n", c.Count(engine.Claimed), len(c.Results)))
	if c.Unreadable > 0 {
		sb.WriteString(fmt.Sprintf("Skipped:  %d unreadable\n", c.Unreadable))
	}

	if len(c.Results) > 0 {
		sb.WriteString("\n")
		for _, r := range c.Results {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", r.Outcome, shiftLine(r.Shift)))
			sb.WriteString(fmt.Sprintf("    %s\n", r.Reason))
		}
	}

	p.printBox("CYCLE", sb.String())
}

// PrintShifts outputs a titled list of shifts, truncated to maxItemsToShow unless all
// is set.
func (p *Printer) PrintShifts(title string, shifts []types.Shift, all bool) {
	var sb strings.Builder

	if len(shifts) == 0 {
		sb.WriteString("(none)\n")
	}
	count := len(shifts)
	if !all {
		count = min(count, maxItemsToShow)
	}
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("%3d. %s\n", i+1, shiftLine(shifts[i])))
	}
	if count < len(shifts) {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(shifts)-count))
	}

	p.printBox(title, sb.String())
}

// PrintRules outputs the rule tree in traversal order.
func (p *Printer) PrintRules(tree *rules.Tree) {
	if tree == nil {
		return
	}

	var sb strings.Builder
	for _, d := range tree.Dates {
		sb.WriteString(fmt.Sprintf("%s\n", d.Key))
		for _, w := range d.Weekdays {
			sb.WriteString(fmt.Sprintf("  %s @ %s\n", w.Key, strings.Join(w.Locations, ", ")))
			for _, h := range w.Hours {
				sb.WriteString(fmt.Sprintf("    %s: %s\n", h.Key, strings.Join(h.Actions, ", ")))
			}
		}
	}

	p.printBox("RULES", sb.String())
}

func shiftLine(s types.Shift) string {
	action := s.Action
	if action == "" {
		action = strings.Join(s.Actions, "/")
	}
	dates := s.StartDate.String()
	if s.EndDate != s.StartDate {
		dates += ".." + s.EndDate.String()
	}
	line := fmt.Sprintf("%s %s-%s %s", dates, s.StartTime, s.EndTime, action)
	if len(s.Locations) > 0 {
		line += " @ " + strings.Join(s.Locations, ",")
	}
	return line
}
