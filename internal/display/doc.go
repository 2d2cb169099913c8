// Package display formats user-facing warnings for the chrouter CLI.
//
// A Warning has a title and optional message, affected paths and suggestion:
//
//	warning := display.Warning{
//	    Title:      "Unreadable directories skipped",
//	    Files:      []string{"/data/locked"},
//	    Suggestion: "Grant the chrouter user read access to the source tree",
//	}
//	warning.Display(os.Stderr)
//
// Output is yellow when the writer is a terminal and plain otherwise, so
// every function is testable through an io.Writer.
package display
