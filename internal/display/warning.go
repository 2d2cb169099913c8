package display

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/chrouter/internal/models"
	"github.com/mattn/go-isatty"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related paths (optional)
	Suggestion string   // Action to take (optional)
}

// String renders the warning without color.
func (w Warning) String() string {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected path:\n")
		} else {
			b.WriteString("    Affected paths:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

// Display writes the warning to out, in yellow on a terminal.
func (w Warning) Display(out io.Writer) {
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) && !color.NoColor {
		color.New(color.FgYellow).Fprint(out, w.String())
		return
	}
	fmt.Fprint(out, w.String())
}

// WarnUnreadableDirs creates a warning for directories a scan could not list.
func WarnUnreadableDirs(errs []*models.ProcessingError) Warning {
	files := make([]string, 0, len(errs))
	for _, e := range errs {
		files = append(files, e.Path)
	}
	return Warning{
		Title:      fmt.Sprintf("%d unreadable director%s skipped", len(errs), plural(len(errs), "y", "ies")),
		Message:    "Signal files below these paths are not routed",
		Files:      files,
		Suggestion: "Grant the chrouter user read access to the source tree",
	}
}

// WarnDestInsideSource returns a warning when dest lies inside src, and
// false otherwise.
func WarnDestInsideSource(src, dest string) (Warning, bool) {
	rel, err := filepath.Rel(filepath.Clean(src), filepath.Clean(dest))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Warning{}, false
	}
	return Warning{
		Title:      "Destination is inside the source tree",
		Message:    "Routed copies are written into the tree that is scanned",
		Files:      []string{dest},
		Suggestion: "Point destPath outside sourcePath",
	}, true
}

// WarnConfigNotFound creates a warning for a configuration file that does
// not exist; the defaults are used instead.
func WarnConfigNotFound(path string) Warning {
	return Warning{
		Title:      "Configuration file not found",
		Message:    "Using defaults; sourcePath and destPath have none",
		Files:      []string{path},
		Suggestion: "Create it with sourcePath=<dir> and destPath=<dir> lines",
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
