package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/chrouter/internal/chemstation/chemtest"
	"github.com/harrison/chrouter/internal/config"
	"github.com/harrison/chrouter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildScanTree(t *testing.T) (string, map[string]string) {
	t.Helper()
	src := t.TempDir()
	files := map[string]string{
		"full":   filepath.Join(src, "run1", "FID1A.ch"),
		"header": filepath.Join(src, "run2", "DAD1A.ch"),
		"demo":   filepath.Join(src, "DEMO", "FID1A.ch"),
		"short":  filepath.Join(src, "run3", "broken.ch"),
	}

	writeFullSample(t, files["full"], "Blank")
	require.NoError(t, os.WriteFile(filepath.Join(src, "run1", "Report.pdf"), []byte("%PDF-1.4"), 0644))
	chemtest.Write(t, files["header"], chemtest.File{Magic: models.MagicHeaderOnly, Name: "Std", Date: "2024-03-12", Method: "LC"})
	writeFullSample(t, files["demo"], "Demo")
	require.NoError(t, os.MkdirAll(filepath.Dir(files["short"]), 0755))
	require.NoError(t, os.WriteFile(files["short"], []byte{0x03}, 0644))
	return src, files
}

func TestScan_ListsCandidates(t *testing.T) {
	src, files := buildScanTree(t)
	dest := filepath.Join(t.TempDir(), "out")

	buf := new(bytes.Buffer)
	require.NoError(t, scanWithOutput(&config.Config{SourcePath: src, DestPath: dest}, false, buf))

	output := buf.String()
	assert.Contains(t, output, files["full"]+" [pdf]")
	assert.Contains(t, output, files["header"])
	assert.Contains(t, output, files["short"])
	assert.Contains(t, output, "file shorter than signature")
	assert.NotContains(t, output, files["demo"])
	assert.Contains(t, output, "Candidates: 3")
	assert.Contains(t, output, "full-sample: 1")
	assert.Contains(t, output, "header-only: 1")
	assert.Contains(t, output, "unknown: 1")
	assert.NotContains(t, output, "Excluded:")

	assert.NoDirExists(t, dest, "scan never writes")
}

func TestScan_AllIncludesExcludedSubtrees(t *testing.T) {
	src, files := buildScanTree(t)

	buf := new(bytes.Buffer)
	require.NoError(t, scanWithOutput(&config.Config{SourcePath: src}, true, buf))

	output := buf.String()
	assert.Contains(t, output, files["demo"]+" (excluded)")
	assert.Contains(t, output, "Candidates: 4")
	assert.Contains(t, output, "Excluded: 1")
}

func TestScan_Errors(t *testing.T) {
	t.Run("no source path", func(t *testing.T) {
		err := scanWithOutput(&config.Config{}, false, new(bytes.Buffer))
		assert.ErrorIs(t, err, config.ErrConfigMissing)
	})

	t.Run("missing root", func(t *testing.T) {
		err := scanWithOutput(&config.Config{SourcePath: filepath.Join(t.TempDir(), "gone")}, false, new(bytes.Buffer))
		assert.Error(t, err)
	})
}

func TestExcludedDir(t *testing.T) {
	tests := []struct {
		root, dir string
		want      bool
	}{
		{"/data", "/data/run1", false},
		{"/data", "/data/DEMO", true},
		{"/data", "/data/x/SNAPSHOT.1/y", true},
		{"/data/DEMO", "/data/DEMO", false},
		{"/data/DEMO/", "/data/DEMO", false},
	}
	for _, tt := range tests {
		if got := excludedDir(tt.root, tt.dir); got != tt.want {
			t.Errorf("excludedDir(%q, %q) = %v, want %v", tt.root, tt.dir, got, tt.want)
		}
	}
}

func TestScan_WarnsAboutUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	src, _ := buildScanTree(t)
	locked := filepath.Join(src, "locked")
	require.NoError(t, os.MkdirAll(locked, 0755))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	buf := new(bytes.Buffer)
	require.NoError(t, scanWithOutput(&config.Config{SourcePath: src}, false, buf))
	assert.Contains(t, buf.String(), "1 unreadable directory skipped")
	assert.Contains(t, buf.String(), "1. "+locked)
	assert.Contains(t, buf.String(), "Unreadable directories: 1")
}
