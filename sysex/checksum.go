package sysex

// calculateChecksum computes the 7-bit two's-complement style checksum used
// by several synthesizer families: sum every byte strictly between the start
// marker and the end marker, excluding the checksum byte itself, then negate
// modulo 128.
//
// The formula is a validity heuristic shared by decoder and encoder; a
// mismatch on decode is reported in metadata, never treated as fatal.
func calculateChecksum(data []byte, checksumPos int) byte {
	sum := 0
	for i := 1; i < len(data)-1; i++ {
		if i == checksumPos {
			continue
		}
		sum += int(data[i])
	}

	return byte((128 - (sum % 128)) % 128)
}
