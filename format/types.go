// Package format defines small shared enums used across subtool's
// packages: the on-disk subfile version, delay-table/dump text formats,
// named subfile sections, and the export compression algorithm.
package format

type (
	// SubVersion is the on-disk mwax subfile format version.
	SubVersion uint8

	// TableFormat selects how a delay table is read or written.
	TableFormat uint8

	// Section names one of the five regions of a subfile.
	Section uint8

	// CompressionType selects an export-artifact compression codec.
	CompressionType uint8
)

const (
	// SubVersionUnknown marks a not-yet-detected version.
	SubVersionUnknown SubVersion = 0
	// SubVersionV1 is the original int16-millisample delay table format.
	SubVersionV1 SubVersion = 1
	// SubVersionV2 is the float32-sample delay table format.
	SubVersionV2 SubVersion = 2
)

const (
	// FormatAuto heuristically detects the delay-table format on read.
	FormatAuto TableFormat = iota
	// FormatCSV reads/writes the delay table as comma-separated text.
	FormatCSV
	// FormatBin reads/writes the delay table as packed binary rows.
	FormatBin
	// FormatPretty prints a human-readable column layout (output only).
	FormatPretty
)

const (
	SectionHeader Section = iota
	SectionDelayTable
	SectionUDPMap
	SectionMargin
	SectionData
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (v SubVersion) String() string {
	switch v {
	case SubVersionV1:
		return "v1"
	case SubVersionV2:
		return "v2"
	default:
		return "unknown"
	}
}

func (f TableFormat) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatCSV:
		return "csv"
	case FormatBin:
		return "bin"
	case FormatPretty:
		return "pretty"
	default:
		return "unknown"
	}
}

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionDelayTable:
		return "dt"
	case SectionUDPMap:
		return "udpmap"
	case SectionMargin:
		return "margin"
	case SectionData:
		return "data"
	default:
		return "unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}
