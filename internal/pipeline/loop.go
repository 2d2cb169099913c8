// Package pipeline drives scan-and-route cycles over the source tree.
//
// A Loop alternates between two states: Scanning, where candidates are found
// and routed one at a time in walk order, and Sleeping, where it waits for the
// poll interval, a wake signal or cancellation. Cancellation never interrupts
// a file that is being routed.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/chrouter/internal/fileutil"
	"github.com/harrison/chrouter/internal/models"
)

// DefaultInterval is the sleep between cycles when none is configured.
const DefaultInterval = 5 * time.Minute

// Logger receives cycle events.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogCycleStart(report models.CycleReport)
	LogRouteOutcome(out models.RouteOutcome)
	LogCycleSummary(report models.CycleReport)
}

// Recorder persists cycle results. Failures are logged and never stop the loop.
type Recorder interface {
	RecordCycle(ctx context.Context, report models.CycleReport) error
	RecordOutcome(ctx context.Context, cycleID string, out models.RouteOutcome) error
}

// Router routes one candidate and marks it in its processed set.
type Router interface {
	Route(path string) models.RouteOutcome
	Processed() *fileutil.ProcessedSet
}

// Loop runs cycles against one source tree.
type Loop struct {
	root     string
	interval time.Duration
	router   Router
	logger   Logger
	recorder Recorder
}

// New creates a Loop. recorder may be nil to disable the history ledger.
func New(root string, interval time.Duration, router Router, logger Logger, recorder Recorder) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		root:     root,
		interval: interval,
		router:   router,
		logger:   logger,
		recorder: recorder,
	}
}

// RunCycle scans the source tree once and routes every candidate found.
// If ctx is cancelled, the file being routed finishes and the rest are left
// for the next run.
func (l *Loop) RunCycle(ctx context.Context) models.CycleReport {
	report := models.CycleReport{
		ID:        uuid.NewString(),
		Root:      l.root,
		StartedAt: time.Now(),
	}

	var candidates []string
	result, err := fileutil.ScanCandidates(l.root, fileutil.DefaultCandidateOptions(l.router.Processed()))
	if err != nil {
		report.ScanErrors = append(report.ScanErrors, models.NewProcessingError(models.KindScanError, l.root, err))
		l.logger.LogError(fmt.Sprintf("scan of %s failed: %v", l.root, err))
	} else {
		candidates = result.Files
		report.ScanErrors = result.Errors
		for _, e := range result.Errors {
			l.logger.LogWarn(e.Error())
		}
	}
	report.Found = len(candidates)
	l.logger.LogCycleStart(report)

	for i, path := range candidates {
		if ctx.Err() != nil {
			l.logger.LogInfo(fmt.Sprintf("shutdown requested, %d candidate(s) left unrouted", len(candidates)-i))
			break
		}
		out := l.router.Route(path)
		report.Outcomes = append(report.Outcomes, out)
		l.logger.LogRouteOutcome(out)
	}

	report.Duration = time.Since(report.StartedAt)
	l.logger.LogCycleSummary(report)
	l.record(context.WithoutCancel(ctx), report)
	return report
}

func (l *Loop) record(ctx context.Context, report models.CycleReport) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.RecordCycle(ctx, report); err != nil {
		l.logger.LogWarn(fmt.Sprintf("history: %v", err))
		return
	}
	for _, out := range report.Outcomes {
		if err := l.recorder.RecordOutcome(ctx, report.ID, out); err != nil {
			l.logger.LogWarn(fmt.Sprintf("history: %v", err))
		}
	}
}

// Run alternates cycles and sleeps until ctx is cancelled. A value on wake
// ends the current sleep early. Run returns nil on cancellation.
func (l *Loop) Run(ctx context.Context, wake <-chan struct{}) error {
	l.logger.LogInfo(fmt.Sprintf("watching %s every %s", l.root, l.interval))
	for {
		l.RunCycle(ctx)
		if ctx.Err() != nil {
			l.logger.LogInfo("shutting down")
			return nil
		}

		l.logger.LogDebug(fmt.Sprintf("sleeping %s", l.interval))
		woken, err := Sleep(ctx, l.interval, wake)
		if err != nil {
			l.logger.LogInfo("shutting down")
			return nil
		}
		if woken {
			l.logger.LogInfo("woken early, starting next cycle")
		}
	}
}

// Sleep waits for d, a value on wake, or cancellation. It reports whether
// the sleep was ended by wake and returns ctx.Err() when cancelled.
// A nil wake channel never fires.
func Sleep(ctx context.Context, d time.Duration, wake <-chan struct{}) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-wake:
		return true, nil
	case <-timer.C:
		return false, nil
	}
}
