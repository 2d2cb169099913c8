// Package signature classifies instrument files by the 4-byte magic number at
// the start of the file.
package signature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harrison/chrouter/internal/models"
)

// magicLen is the number of leading bytes that make up the signature.
const magicLen = 4

// ErrShortSignature is returned when a file holds fewer than four bytes.
var ErrShortSignature = errors.New("file shorter than signature")

// Signature is the classification result for one file.
type Signature struct {
	Magic int32
	Kind  models.FormatKind
	// Err is set when the signature could not be read. Kind is then FormatUnknown.
	Err error
}

// ReadMagic reads the first four bytes of path as a big-endian signed integer.
// It returns 0 with ErrShortSignature for short files and 0 with a wrapped
// I/O error when the file cannot be opened or read.
func ReadMagic(path string) (int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var buf [magicLen]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrShortSignature
		}
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// Classify reads the magic number of path and maps it to a FormatKind.
// Read failures classify as unknown; the cause is kept in Signature.Err.
func Classify(path string) Signature {
	magic, err := ReadMagic(path)
	return Signature{
		Magic: magic,
		Kind:  models.KindForMagic(magic),
		Err:   err,
	}
}

// IOError reports whether the signature read failed for a reason other than
// the file being too short.
func (s Signature) IOError() bool {
	return s.Err != nil && !errors.Is(s.Err, ErrShortSignature)
}
