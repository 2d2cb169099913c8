package models

import (
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies failures that occur while scanning and routing.
type ErrorKind int

const (
	// KindConfigMissing is a required configuration key that is absent or empty.
	KindConfigMissing ErrorKind = iota
	// KindScanError is a directory that could not be listed.
	KindScanError
	// KindClassificationUnreadable is a file whose signature could not be read.
	KindClassificationUnreadable
	// KindMalformedRecord is a binary sample record that could not be decoded.
	KindMalformedRecord
	// KindFallbackParseAbort is a text report that stopped parsing early.
	KindFallbackParseAbort
	// KindCopyFailure is a companion document that could not be copied.
	KindCopyFailure
	// KindExportFailure is an XML export that could not be written.
	KindExportFailure
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfigMissing:
		return "ConfigMissing"
	case KindScanError:
		return "ScanError"
	case KindClassificationUnreadable:
		return "ClassificationUnreadable"
	case KindMalformedRecord:
		return "MalformedRecord"
	case KindFallbackParseAbort:
		return "FallbackParseAbort"
	case KindCopyFailure:
		return "CopyFailure"
	case KindExportFailure:
		return "ExportFailure"
	default:
		return "Unknown"
	}
}

// ProcessingError is a recoverable per-file failure. It never stops the
// processing loop; the file is still marked processed.
type ProcessingError struct {
	Kind      ErrorKind
	Path      string
	Err       error
	Timestamp time.Time
}

// NewProcessingError creates a ProcessingError with the current timestamp.
func NewProcessingError(kind ErrorKind, path string, err error) *ProcessingError {
	return &ProcessingError{
		Kind:      kind,
		Path:      path,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for ProcessingError.
func (e *ProcessingError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s", e.Kind, e.Path))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}
