// Package report extracts sample metadata from the UTF-16 text report that
// acquisition software writes next to header-less signal files.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/chrouter/internal/models"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileName is the report consulted in the candidate's directory.
const FileName = "report00.csv"

// ErrFallbackParseAbort is returned when the report is missing or a matched
// line has too few quoted fields. Metadata read before the abort is kept.
var ErrFallbackParseAbort = errors.New("report parse aborted")

// Line markers and the quote-split field index holding each value.
const (
	markerSampleName     = "Sample Name"
	markerAnalysisMethod = "Analysis Method"
	markerInjectionDate  = "Injection Date"

	fieldSampleName     = 3
	fieldAnalysisMethod = 5
	fieldInjectionDate  = 3
)

// Options controls how report lines map onto metadata fields.
type Options struct {
	// InjectionDateAsSampleDate stores the injection date in SampleDate.
	// When false it overwrites AnalysisMethod, as the acquisition reports
	// have always been read.
	InjectionDateAsSampleDate bool
}

// ReadMetadata parses {dir}/report00.csv. The returned metadata is sanitized
// and holds whatever was read before any error.
func ReadMetadata(dir string, opts Options) (models.SampleMetadata, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		return models.SampleMetadata{}, fmt.Errorf("%w: open %s: %v", ErrFallbackParseAbort, path, err)
	}
	defer f.Close()

	// UTF-16 with BOM detection; big-endian when no BOM is present.
	decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	scanner := bufio.NewScanner(transform.NewReader(f, decoder))

	var meta models.SampleMetadata
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		var (
			index int
			dst   *string
		)
		switch {
		case strings.Contains(line, markerSampleName):
			index, dst = fieldSampleName, &meta.SampleName
		case strings.Contains(line, markerAnalysisMethod):
			index, dst = fieldAnalysisMethod, &meta.AnalysisMethod
		case strings.Contains(line, markerInjectionDate):
			index, dst = fieldInjectionDate, &meta.AnalysisMethod
			if opts.InjectionDateAsSampleDate {
				dst = &meta.SampleDate
			}
		default:
			continue
		}

		fields := splitQuoted(line)
		if index >= len(fields) {
			return meta.Sanitized(), fmt.Errorf("%w: %s line %d has %d fields, need %d",
				ErrFallbackParseAbort, FileName, lineNo, len(fields), index+1)
		}
		*dst = fields[index]
	}
	if err := scanner.Err(); err != nil {
		return meta.Sanitized(), fmt.Errorf("%w: read %s: %v", ErrFallbackParseAbort, path, err)
	}

	return meta.Sanitized(), nil
}

// splitQuoted splits line on '"' and drops trailing empty fields, so
// `"Sample Name","X"` yields ["", "Sample Name", ",", "X"].
func splitQuoted(line string) []string {
	fields := strings.Split(line, `"`)
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}
