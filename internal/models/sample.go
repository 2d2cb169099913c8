package models

import "strings"

// unsafeNameReplacer maps characters that cannot appear in destination file
// names to ".". The asterisk is intentionally mapped to itself.
var unsafeNameReplacer = strings.NewReplacer(
	"<", ".",
	">", ".",
	":", ".",
	`"`, ".",
	"/", ".",
	`\`, ".",
	"|", ".",
	"?", ".",
	"*", "*",
)

// SanitizeName replaces filesystem-unsafe characters in a metadata value with ".".
// "*" is left unchanged.
func SanitizeName(s string) string {
	return unsafeNameReplacer.Replace(s)
}

// SampleMetadata holds the fields used to name routed artifacts.
type SampleMetadata struct {
	AnalysisMethod string `json:"analysis_method" yaml:"analysis_method"`
	SampleName     string `json:"sample_name" yaml:"sample_name"`
	SampleDate     string `json:"sample_date" yaml:"sample_date"`
}

// Sanitized returns a copy with every field passed through SanitizeName.
func (m SampleMetadata) Sanitized() SampleMetadata {
	return SampleMetadata{
		AnalysisMethod: SanitizeName(m.AnalysisMethod),
		SampleName:     SanitizeName(m.SampleName),
		SampleDate:     SanitizeName(m.SampleDate),
	}
}

// Complete reports whether method, name and date are all non-empty.
func (m SampleMetadata) Complete() bool {
	return m.AnalysisMethod != "" && m.SampleName != "" && m.SampleDate != ""
}

// BaseName returns the "{name} {date}" stem used for destination files.
func (m SampleMetadata) BaseName() string {
	return m.SampleName + " " + m.SampleDate
}

// MetadataSource records where a candidate's metadata came from.
type MetadataSource string

const (
	SourceNone   MetadataSource = "none"
	SourceBinary MetadataSource = "binary"
	SourceReport MetadataSource = "report"
)
