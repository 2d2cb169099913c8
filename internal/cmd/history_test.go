package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrison/chrouter/internal/history"
	"github.com/harrison/chrouter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	exported := models.RouteOutcome{
		Path:     "/data/run1/FID1A.ch",
		Magic:    models.MagicFullSample,
		Kind:     models.FormatFullSample,
		Source:   models.SourceBinary,
		Metadata: models.SampleMetadata{SampleName: "Blank", SampleDate: "2024-03-12", AnalysisMethod: "GC-FID"},
		XMLPath:  "/out/xml/Blank 2024-03-12.xml",
		PDFPath:  "/out/Blank 2024-03-12.pdf",
	}
	failed := models.RouteOutcome{Path: "/data/run2/FID1A.ch", Source: models.SourceReport}
	failed.AddError(models.KindFallbackParseAbort, errors.New("report parse aborted"))

	ctx := context.Background()
	report := models.CycleReport{
		ID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Root:      "/data",
		StartedAt: time.Now(),
		Found:     2,
		Outcomes:  []models.RouteOutcome{exported, failed},
	}
	require.NoError(t, store.RecordCycle(ctx, report))
	for _, out := range report.Outcomes {
		require.NoError(t, store.RecordOutcome(ctx, report.ID, out))
	}
	return dbPath
}

func TestShowHistory(t *testing.T) {
	dbPath := seedHistory(t)

	buf := new(bytes.Buffer)
	require.NoError(t, showHistory(context.Background(), dbPath, 0, buf))

	output := buf.String()
	for _, want := range []string{
		"=== Recent Routing (2) ===",
		"exported+copied /data/run1/FID1A.ch",
		"(cycle 0f8fad5b)",
		`Sample: "Blank" "2024-03-12" method "GC-FID"`,
		"PDF: /out/Blank 2024-03-12.pdf",
		"failed /data/run2/FID1A.ch",
		"Error: FallbackParseAbort /data/run2/FID1A.ch: report parse aborted",
		"Cycles: 1",
		"Files: 2",
		"exported+copied: 1",
		"failed: 1",
		"Last routed:",
	} {
		assert.Contains(t, output, want)
	}

	// Most recent first
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("/data/run2")), bytes.Index(buf.Bytes(), []byte("/data/run1")))
}

func TestShowHistory_Limit(t *testing.T) {
	dbPath := seedHistory(t)

	buf := new(bytes.Buffer)
	require.NoError(t, showHistory(context.Background(), dbPath, 1, buf))
	assert.Contains(t, buf.String(), "=== Recent Routing (1) ===")
	assert.NotContains(t, buf.String(), "exported+copied /data/run1")
	assert.Contains(t, buf.String(), "Files: 2", "totals cover the whole ledger")
}

func TestShowHistory_NoLedger(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, showHistory(context.Background(), "", 10, buf))
		assert.Contains(t, buf.String(), "History is disabled")
	})

	t.Run("not created yet", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "history.db")
		buf := new(bytes.Buffer)
		require.NoError(t, showHistory(context.Background(), dbPath, 10, buf))
		assert.Contains(t, buf.String(), "No routing history found")
		assert.NoFileExists(t, dbPath)
	})
}

func TestHistoryCommand(t *testing.T) {
	dbPath := seedHistory(t)
	configPath := filepath.Join(t.TempDir(), "chrouter.yaml")
	writeFile(t, configPath, "historyPath: "+dbPath+"\n")

	output, err := executeRoot(t, "history", "--config", configPath, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, output, "Recent Routing (2)")
}
