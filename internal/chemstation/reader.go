// Package chemstation decodes ChemStation signal files (.ch) into sample
// metadata and, for full-sample files, the recorded signal.
package chemstation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/harrison/chrouter/internal/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrMalformedRecord is returned when a file carries a known magic number but
// its layout cannot be decoded.
var ErrMalformedRecord = errors.New("malformed sample record")

// Header offsets shared by the "179" and "181" layouts.
const (
	offsetName   = 0x35A
	offsetDate   = 0x957
	offsetMethod = 0xA0E
)

// Header offsets of the legacy "108" layout.
const (
	legacyOffsetName   = 0x18
	legacyOffsetDate   = 0xB2
	legacyOffsetMethod = 0xE4
)

// Signal offsets of the "179" layout.
const (
	offsetStartTime = 0x11A
	offsetEndTime   = 0x11E
	offsetScale     = 0x127C
	offsetData      = 0x1800
)

// layout describes where header strings live and how they are encoded.
type layout struct {
	name, date, method int
	charWidth          int
	decoder            func() *encoding.Decoder
}

var (
	utf16Layout = layout{
		name: offsetName, date: offsetDate, method: offsetMethod,
		charWidth: 2,
		decoder:   unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder,
	}
	legacyLayout = layout{
		name: legacyOffsetName, date: legacyOffsetDate, method: legacyOffsetMethod,
		charWidth: 1,
		decoder:   charmap.ISO8859_1.NewDecoder,
	}
)

func layoutFor(kind models.FormatKind) (layout, bool) {
	switch kind {
	case models.FormatFullSample, models.FormatHeaderOnlyAlt:
		return utf16Layout, true
	case models.FormatHeaderOnly:
		return legacyLayout, true
	default:
		return layout{}, false
	}
}

// Signal is the decoded detector trace of a full-sample record.
type Signal struct {
	StartMinutes float64
	EndMinutes   float64
	Scale        float64
	Values       []float64
}

// TimeAt returns the retention time in minutes of point i.
func (s *Signal) TimeAt(i int) float64 {
	if len(s.Values) < 2 {
		return s.StartMinutes
	}
	step := (s.EndMinutes - s.StartMinutes) / float64(len(s.Values)-1)
	return s.StartMinutes + float64(i)*step
}

// Record is a decoded sample file.
type Record struct {
	Path           string
	Kind           models.FormatKind
	SampleName     string
	SampleDate     string
	AnalysisMethod string
	// Signal is nil for header-only formats.
	Signal *Signal
}

// Open reads and decodes the sample file at path.
func Open(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample file: %w", err)
	}
	return Decode(path, data)
}

// Decode decodes an in-memory sample file. path is only recorded.
func Decode(path string, data []byte) (*Record, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(data))
	}

	magic := int32(binary.BigEndian.Uint32(data[:4]))
	kind := models.KindForMagic(magic)
	lay, ok := layoutFor(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized signature %s", ErrMalformedRecord, models.FormatMagic(magic))
	}

	rec := &Record{Path: path, Kind: kind}
	fields := []struct {
		offset int
		dst    *string
		label  string
	}{
		{lay.name, &rec.SampleName, "sample name"},
		{lay.date, &rec.SampleDate, "sample date"},
		{lay.method, &rec.AnalysisMethod, "analysis method"},
	}
	for _, f := range fields {
		s, err := readPascalString(data, f.offset, lay)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.label, err)
		}
		*f.dst = s
	}

	if kind.CanReadSamples() {
		sig, err := readSignal(data)
		if err != nil {
			return nil, err
		}
		rec.Signal = sig
	}

	return rec, nil
}

// Metadata returns the unsanitized sample metadata.
func (r *Record) Metadata() models.SampleMetadata {
	return models.SampleMetadata{
		AnalysisMethod: r.AnalysisMethod,
		SampleName:     r.SampleName,
		SampleDate:     r.SampleDate,
	}
}

// readPascalString reads a length-prefixed string: one length byte counting
// characters, followed by length*charWidth bytes.
func readPascalString(data []byte, offset int, lay layout) (string, error) {
	if offset >= len(data) {
		return "", fmt.Errorf("%w: offset 0x%X beyond end of file", ErrMalformedRecord, offset)
	}
	n := int(data[offset])
	start := offset + 1
	end := start + n*lay.charWidth
	if end > len(data) {
		return "", fmt.Errorf("%w: string at 0x%X overruns file", ErrMalformedRecord, offset)
	}

	decoded, err := lay.decoder().Bytes(data[start:end])
	if err != nil {
		return "", fmt.Errorf("%w: decode string at 0x%X: %v", ErrMalformedRecord, offset, err)
	}
	return strings.TrimRight(string(decoded), "\x00 "), nil
}

func readSignal(data []byte) (*Signal, error) {
	if len(data) < offsetData {
		return nil, fmt.Errorf("%w: no signal data (%d bytes)", ErrMalformedRecord, len(data))
	}
	if (len(data)-offsetData)%8 != 0 {
		return nil, fmt.Errorf("%w: truncated signal data", ErrMalformedRecord)
	}

	sig := &Signal{
		StartMinutes: float64(readFloat32(data, offsetStartTime)) / 60000,
		EndMinutes:   float64(readFloat32(data, offsetEndTime)) / 60000,
		Scale:        readFloat64(data, offsetScale),
	}
	if sig.Scale == 0 || math.IsNaN(sig.Scale) {
		sig.Scale = 1
	}

	count := (len(data) - offsetData) / 8
	sig.Values = make([]float64, count)
	for i := 0; i < count; i++ {
		sig.Values[i] = readFloat64(data, offsetData+i*8) * sig.Scale
	}
	return sig, nil
}

func readFloat32(data []byte, offset int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(data[offset : offset+4]))
}

func readFloat64(data []byte, offset int) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(data[offset : offset+8]))
}
