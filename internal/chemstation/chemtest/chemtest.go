// Package chemtest builds synthetic ChemStation signal files for tests.
package chemtest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/harrison/chrouter/internal/models"
)

// File describes a synthetic sample file.
type File struct {
	Magic  int32
	Name   string
	Date   string
	Method string
	// Values are raw (unscaled) signal points, used for full-sample files.
	Values []float64
	// StartMS and EndMS are the signal time range in milliseconds.
	StartMS, EndMS float32
	Scale          float64
}

// Bytes encodes f using the layout implied by its magic number.
func (f File) Bytes() []byte {
	var buf []byte
	switch f.Magic {
	case models.MagicHeaderOnly:
		buf = make([]byte, 0x200)
		putLatin1(buf, 0x18, f.Name)
		putLatin1(buf, 0xB2, f.Date)
		putLatin1(buf, 0xE4, f.Method)
	case models.MagicHeaderOnlyAlt:
		buf = make([]byte, 0x1000)
		putUTF16(buf, 0x35A, f.Name)
		putUTF16(buf, 0x957, f.Date)
		putUTF16(buf, 0xA0E, f.Method)
	case models.MagicFullSample:
		buf = make([]byte, 0x1800+8*len(f.Values))
		putUTF16(buf, 0x35A, f.Name)
		putUTF16(buf, 0x957, f.Date)
		putUTF16(buf, 0xA0E, f.Method)
		binary.BigEndian.PutUint32(buf[0x11A:], math.Float32bits(f.StartMS))
		binary.BigEndian.PutUint32(buf[0x11E:], math.Float32bits(f.EndMS))
		binary.BigEndian.PutUint64(buf[0x127C:], math.Float64bits(f.Scale))
		for i, v := range f.Values {
			binary.BigEndian.PutUint64(buf[0x1800+8*i:], math.Float64bits(v))
		}
	default:
		buf = make([]byte, 16)
	}
	binary.BigEndian.PutUint32(buf, uint32(f.Magic))
	return buf
}

// Write writes f to path, creating parent directories.
func Write(t testing.TB, path string, f File) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create sample dir: %v", err)
	}
	if err := os.WriteFile(path, f.Bytes(), 0644); err != nil {
		t.Fatalf("write sample file: %v", err)
	}
	return path
}

func putLatin1(buf []byte, offset int, s string) {
	buf[offset] = byte(len(s))
	copy(buf[offset+1:], s)
}

func putUTF16(buf []byte, offset int, s string) {
	units := utf16.Encode([]rune(s))
	buf[offset] = byte(len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[offset+1+2*i:], u)
	}
}
