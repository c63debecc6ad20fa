package format

import "fmt"

type (
	DataType        uint8
	MatchMode       uint8
	CompressionType uint8
)

const (
	TypeUint8  DataType = 0x1 // TypeUint8 represents a single-byte unsigned field.
	TypeUint16 DataType = 0x2 // TypeUint16 represents a two-byte unsigned field, big-endian on the wire.

	MatchManufacturer MatchMode = 0x1 // MatchManufacturer verifies the manufacturer ID bytes only.
	MatchStrict       MatchMode = 0x2 // MatchStrict additionally verifies declared device, model and command bytes.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (d DataType) String() string {
	switch d {
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	default:
		return "Unknown"
	}
}

// Size returns the number of message bytes the data type occupies.
func (d DataType) Size() int {
	if d == TypeUint16 {
		return 2
	}

	return 1
}

// ParseDataType converts the textual data type used in definition configs
// into a DataType. The empty string maps to TypeUint8, the config default.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "", "uint8":
		return TypeUint8, nil
	case "uint16":
		return TypeUint16, nil
	default:
		return 0, fmt.Errorf("unsupported data type: %q", s)
	}
}

func (m MatchMode) String() string {
	switch m {
	case MatchManufacturer:
		return "Manufacturer"
	case MatchStrict:
		return "Strict"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
