package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/chrouter/internal/models"
)

// colorScheme defines consistent colors for cycle counts.
// Green: artifacts written
// Red: failures
// Yellow: skipped files
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
	}
}

// formatCounts renders "Skipped: n | Exported: n | Copied: n | Failed: n".
// Zero counts are never colored.
func formatCounts(report models.CycleReport, colored bool) string {
	skipped, exported, copied, failed := report.Counts()

	scheme := newColorScheme()
	parts := []struct {
		label string
		n     int
		c     *color.Color
	}{
		{"Skipped", skipped, scheme.warn},
		{"Exported", exported, scheme.success},
		{"Copied", copied, scheme.success},
		{"Failed", failed, scheme.fail},
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if !colored {
			out = append(out, fmt.Sprintf("%s: %d", p.label, p.n))
			continue
		}
		value := fmt.Sprint(p.n)
		if p.n > 0 {
			value = p.c.Sprint(value)
		}
		out = append(out, fmt.Sprintf("%s: %s", scheme.label.Sprint(p.label), value))
	}
	return strings.Join(out, " | ")
}

// actionColor picks the color for an outcome's action word.
func actionColor(out models.RouteOutcome) *color.Color {
	scheme := newColorScheme()
	switch {
	case out.Failed():
		return scheme.fail
	case out.Skipped:
		return scheme.warn
	case out.Exported() || out.Copied():
		return scheme.success
	default:
		return scheme.label
	}
}

// formatCycleStart renders the line logged once a scan finishes.
func formatCycleStart(report models.CycleReport) string {
	return fmt.Sprintf("Cycle %s: %d candidate(s) in %s", shortID(report.ID), report.Found, report.Root)
}

// describeOutcome renders everything about an outcome but its action word.
// Format: "<path> [<format>, <source>] -> <name> <date> (<n> error(s))"
func describeOutcome(out models.RouteOutcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s, %s]", out.Path, out.Kind, out.Source)
	if out.Skipped {
		sb.WriteString(" no companion document")
		return sb.String()
	}
	if out.Metadata.SampleName != "" || out.Metadata.SampleDate != "" {
		fmt.Fprintf(&sb, " -> %s", out.Metadata.BaseName())
	}
	if n := len(out.Errors); n > 0 {
		fmt.Fprintf(&sb, " (%d error(s))", n)
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
