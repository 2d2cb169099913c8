// Package router decides, for one candidate file, where its metadata comes
// from and which artifacts are written to the destination tree.
package router

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/chrouter/internal/chemstation"
	"github.com/harrison/chrouter/internal/companion"
	"github.com/harrison/chrouter/internal/filelock"
	"github.com/harrison/chrouter/internal/fileutil"
	"github.com/harrison/chrouter/internal/models"
	"github.com/harrison/chrouter/internal/report"
	"github.com/harrison/chrouter/internal/signature"
)

// XMLDirName is the destination subdirectory for XML exports.
const XMLDirName = "xml"

// SampleRecord is a decoded sample file.
type SampleRecord interface {
	Metadata() models.SampleMetadata
	WriteXML(path string) error
}

// RecordOpener opens the sample record reader for a file.
type RecordOpener func(path string) (SampleRecord, error)

// OpenChemStation is the default RecordOpener.
func OpenChemStation(path string) (SampleRecord, error) {
	rec, err := chemstation.Open(path)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Logger receives per-file diagnostics that are not errors.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogWarn(string) {}

// Options configures a Router.
type Options struct {
	// DestPath is the root of the destination tree.
	DestPath string
	// InjectionDateAsSampleDate is passed through to the report parser.
	InjectionDateAsSampleDate bool
	// VerifyCompanionPDF validates companion documents before copying them.
	VerifyCompanionPDF bool
	// Opener defaults to OpenChemStation.
	Opener RecordOpener
	// Logger defaults to a no-op logger.
	Logger Logger
}

// Router routes candidate files. It is not safe for concurrent use.
type Router struct {
	opts      Options
	processed *fileutil.ProcessedSet
}

// New creates a Router that marks every routed file in processed.
func New(opts Options, processed *fileutil.ProcessedSet) *Router {
	if opts.Opener == nil {
		opts.Opener = OpenChemStation
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if processed == nil {
		processed = fileutil.NewProcessedSet()
	}
	return &Router{opts: opts, processed: processed}
}

// Processed returns the set the router marks files in.
func (r *Router) Processed() *fileutil.ProcessedSet {
	return r.processed
}

// Route classifies path, extracts its metadata, writes the XML export and
// copies the companion document as applicable. The file is marked processed
// whatever the result; failures are reported in the outcome.
func (r *Router) Route(path string) (out models.RouteOutcome) {
	start := time.Now()
	out = models.RouteOutcome{Path: path, Source: models.SourceNone}
	defer func() {
		r.processed.Add(path)
		out.Duration = time.Since(start)
	}()

	sig := signature.Classify(path)
	out.Magic = sig.Magic
	out.Kind = sig.Kind
	switch {
	case sig.IOError():
		out.AddError(models.KindClassificationUnreadable, sig.Err)
		r.opts.Logger.LogWarn(fmt.Sprintf("cannot read signature of %s: %v", path, sig.Err))
	case sig.Err != nil:
		r.opts.Logger.LogDebug(fmt.Sprintf("%s: %v", path, sig.Err))
	}
	canReadHeader := sig.Kind.CanReadHeader()
	canReadSamples := sig.Kind.CanReadSamples()

	dir := filepath.Dir(path)
	pdfPath, err := companion.Find(dir)
	if err != nil {
		r.opts.Logger.LogWarn(fmt.Sprintf("cannot list %s for a companion document: %v", dir, err))
	}
	out.CompanionPath = pdfPath
	hasCompanion := pdfPath != ""

	if !canReadSamples && !hasCompanion {
		out.Skipped = true
		return out
	}

	switch {
	case canReadSamples || (canReadHeader && hasCompanion):
		r.routeBinary(&out, canReadSamples)
	case hasCompanion && !canReadHeader:
		r.routeReport(&out, dir)
	}

	if out.Metadata.Complete() && hasCompanion {
		r.copyCompanion(&out)
	}
	return out
}

func (r *Router) routeBinary(out *models.RouteOutcome, export bool) {
	rec, err := r.opts.Opener(out.Path)
	if err != nil {
		out.AddError(models.KindMalformedRecord, err)
		return
	}
	out.Metadata = rec.Metadata().Sanitized()
	out.Source = models.SourceBinary

	if !export {
		return
	}
	xmlDir := filepath.Join(r.opts.DestPath, XMLDirName)
	if err := os.MkdirAll(xmlDir, 0755); err != nil {
		out.AddError(models.KindExportFailure, fmt.Errorf("create %s: %w", xmlDir, err))
		return
	}
	xmlPath := filepath.Join(xmlDir, out.Metadata.BaseName()+".xml")
	if err := rec.WriteXML(xmlPath); err != nil {
		out.AddError(models.KindExportFailure, err)
		return
	}
	out.XMLPath = xmlPath
}

func (r *Router) routeReport(out *models.RouteOutcome, dir string) {
	meta, err := report.ReadMetadata(dir, report.Options{
		InjectionDateAsSampleDate: r.opts.InjectionDateAsSampleDate,
	})
	out.Metadata = meta
	out.Source = models.SourceReport
	if err != nil {
		out.AddError(models.KindFallbackParseAbort, err)
	}
}

func (r *Router) copyCompanion(out *models.RouteOutcome) {
	if r.opts.VerifyCompanionPDF {
		pages, err := companion.Verify(out.CompanionPath)
		if err != nil {
			out.AddError(models.KindCopyFailure, err)
			return
		}
		r.opts.Logger.LogDebug(fmt.Sprintf("companion %s verified (%d pages)", out.CompanionPath, pages))
	}

	dst := filepath.Join(r.opts.DestPath, out.Metadata.BaseName()+".pdf")
	if err := filelock.AtomicCopy(out.CompanionPath, dst); err != nil {
		out.AddError(models.KindCopyFailure, err)
		return
	}
	out.PDFPath = dst
}
