package chemstation

import (
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/chrouter/internal/chemstation/chemtest"
	"github.com/harrison/chrouter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullSample() chemtest.File {
	return chemtest.File{
		Magic:   models.MagicFullSample,
		Name:    "Acme-01",
		Date:    "12-Mar-24, 10:15:00",
		Method:  "GC-MS.M",
		Values:  []float64{1, 2, 3, 4, 5},
		StartMS: 0,
		EndMS:   240000,
		Scale:   0.5,
	}
}

func TestDecode_FullSample(t *testing.T) {
	rec, err := Decode("/data/run1/FID1A.ch", fullSample().Bytes())
	require.NoError(t, err)

	assert.Equal(t, models.FormatFullSample, rec.Kind)
	assert.Equal(t, "Acme-01", rec.SampleName)
	assert.Equal(t, "12-Mar-24, 10:15:00", rec.SampleDate)
	assert.Equal(t, "GC-MS.M", rec.AnalysisMethod)

	require.NotNil(t, rec.Signal)
	assert.Equal(t, []float64{0.5, 1, 1.5, 2, 2.5}, rec.Signal.Values)
	assert.InDelta(t, 0.0, rec.Signal.StartMinutes, 1e-9)
	assert.InDelta(t, 4.0, rec.Signal.EndMinutes, 1e-9)
	assert.InDelta(t, 1.0, rec.Signal.TimeAt(1), 1e-9)
}

func TestDecode_HeaderOnly(t *testing.T) {
	tests := []struct {
		name  string
		magic int32
	}{
		{name: "legacy 108 layout", magic: models.MagicHeaderOnly},
		{name: "utf16 181 layout", magic: models.MagicHeaderOnlyAlt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := chemtest.File{Magic: tt.magic, Name: "Blank", Date: "2024-01-02", Method: "FID"}
			rec, err := Decode("x.ch", f.Bytes())
			require.NoError(t, err)
			assert.Equal(t, models.SampleMetadata{
				AnalysisMethod: "FID",
				SampleName:     "Blank",
				SampleDate:     "2024-01-02",
			}, rec.Metadata())
			assert.Nil(t, rec.Signal)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	full := fullSample().Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "too short for magic", data: []byte{0x03, '1'}},
		{name: "unknown magic", data: []byte("%PDF-1.7 not a sample")},
		{name: "header truncated", data: full[:0x400]},
		{name: "no signal region", data: full[:0x1000]},
		{name: "partial signal point", data: full[:len(full)-3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("bad.ch", tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.ch"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteXML(t *testing.T) {
	dir := t.TempDir()
	src := chemtest.Write(t, filepath.Join(dir, "run1", "FID1A.ch"), fullSample())

	rec, err := Open(src)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "xml", "Acme-01 12-Mar-24.xml")
	require.NoError(t, rec.WriteXML(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), xml.Header))

	var doc xmlSample
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, "179", doc.Format)
	assert.Equal(t, src, doc.Source)
	assert.Equal(t, "Acme-01", doc.Name)
	assert.Equal(t, "GC-MS.M", doc.Method)
	require.NotNil(t, doc.Signal)
	assert.Equal(t, 5, doc.Signal.Points)
	assert.Len(t, doc.Signal.Values, 5)
	assert.InDelta(t, 2.5, doc.Signal.Values[4].Value, 1e-9)

	t.Run("header-only export has no signal", func(t *testing.T) {
		f := chemtest.File{Magic: models.MagicHeaderOnlyAlt, Name: "B", Date: "D", Method: "M"}
		rec, err := Decode("b.ch", f.Bytes())
		require.NoError(t, err)

		data, err := rec.MarshalXMLDocument()
		require.NoError(t, err)
		assert.NotContains(t, string(data), "<signal")
	})
}
