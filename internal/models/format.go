package models

import "fmt"

// Signature magic numbers. Each is the big-endian int32 of the first four
// bytes of a ChemStation signal file: a length byte of 3 followed by the
// ASCII file-type version.
const (
	MagicHeaderOnly    int32 = 53555256 // 0x03313038, "108"
	MagicHeaderOnlyAlt int32 = 53557297 // 0x03313831, "181"
	MagicFullSample    int32 = 53557049 // 0x03313739, "179"
)

// FormatKind classifies a candidate file by its magic number.
type FormatKind int

const (
	// FormatUnknown covers unrecognized magic numbers, including 0.
	FormatUnknown FormatKind = iota
	// FormatHeaderOnly is a format whose header is decodable but not its samples.
	FormatHeaderOnly
	// FormatHeaderOnlyAlt is the second header-only variant.
	FormatHeaderOnlyAlt
	// FormatFullSample is a format whose whole sample record is decodable.
	FormatFullSample
)

// KindForMagic maps a magic number to its FormatKind.
func KindForMagic(magic int32) FormatKind {
	switch magic {
	case MagicHeaderOnly:
		return FormatHeaderOnly
	case MagicHeaderOnlyAlt:
		return FormatHeaderOnlyAlt
	case MagicFullSample:
		return FormatFullSample
	default:
		return FormatUnknown
	}
}

// CanReadHeader reports whether sample name, date and method are decodable.
func (k FormatKind) CanReadHeader() bool {
	return k == FormatHeaderOnly || k == FormatHeaderOnlyAlt || k == FormatFullSample
}

// CanReadSamples reports whether the full sample record is decodable.
func (k FormatKind) CanReadSamples() bool {
	return k == FormatFullSample
}

// String returns a human-readable name for the format kind
func (k FormatKind) String() string {
	switch k {
	case FormatHeaderOnly:
		return "header-only"
	case FormatHeaderOnlyAlt:
		return "header-only-alt"
	case FormatFullSample:
		return "full-sample"
	default:
		return "unknown"
	}
}

// Version returns the ChemStation file-type version encoded in the magic
// number (for example "179"), or "" for unknown formats.
func (k FormatKind) Version() string {
	switch k {
	case FormatHeaderOnly:
		return "108"
	case FormatHeaderOnlyAlt:
		return "181"
	case FormatFullSample:
		return "179"
	default:
		return ""
	}
}

// FormatMagic renders a magic number as decimal plus hex, e.g. "53557049 (0x03313739)".
func FormatMagic(magic int32) string {
	return fmt.Sprintf("%d (0x%08X)", magic, uint32(magic))
}
