package models

import "time"

// RouteOutcome describes what the router did with one candidate file.
type RouteOutcome struct {
	Path          string
	Magic         int32
	Kind          FormatKind
	CompanionPath string
	Metadata      SampleMetadata
	Source        MetadataSource
	Skipped       bool
	XMLPath       string // set when an XML export was written
	PDFPath       string // set when the companion document was copied
	Errors        []*ProcessingError
	Duration      time.Duration
}

// AddError records a per-file failure against the outcome's path.
func (o *RouteOutcome) AddError(kind ErrorKind, err error) {
	o.Errors = append(o.Errors, NewProcessingError(kind, o.Path, err))
}

// Failed reports whether any per-file error occurred.
func (o RouteOutcome) Failed() bool {
	return len(o.Errors) > 0
}

// Exported reports whether an XML export was written.
func (o RouteOutcome) Exported() bool {
	return o.XMLPath != ""
}

// Copied reports whether the companion document was copied.
func (o RouteOutcome) Copied() bool {
	return o.PDFPath != ""
}

// Action summarizes the outcome in one word for logs and history.
func (o RouteOutcome) Action() string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.Exported() && o.Copied():
		return "exported+copied"
	case o.Exported():
		return "exported"
	case o.Copied():
		return "copied"
	case o.Failed():
		return "failed"
	default:
		return "no-action"
	}
}

// CycleReport aggregates one scan-and-route cycle.
type CycleReport struct {
	ID         string
	Root       string
	StartedAt  time.Time
	Duration   time.Duration
	Found      int
	Outcomes   []RouteOutcome
	ScanErrors []*ProcessingError
}

// Counts returns the number of skipped, exported, copied and failed outcomes.
func (r CycleReport) Counts() (skipped, exported, copied, failed int) {
	for _, o := range r.Outcomes {
		if o.Skipped {
			skipped++
		}
		if o.Exported() {
			exported++
		}
		if o.Copied() {
			copied++
		}
		if o.Failed() {
			failed++
		}
	}
	return skipped, exported, copied, failed
}

// Errors returns every scan and per-file error collected during the cycle.
func (r CycleReport) Errors() []*ProcessingError {
	errs := make([]*ProcessingError, 0, len(r.ScanErrors))
	errs = append(errs, r.ScanErrors...)
	for _, o := range r.Outcomes {
		errs = append(errs, o.Errors...)
	}
	return errs
}
