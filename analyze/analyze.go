// Package analyze surveys SysEx dumps for devices that have no format
// definition yet.
//
// The report lists every framed message with its offset, length,
// manufacturer bytes and a hex preview, plus a per-manufacturer census.
// That is usually enough to pick a candidate definition or start reverse
// engineering one.
package analyze

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	startMarker = 0xF0
	endMarker   = 0xF7

	// previewLen bounds the hex preview of each message.
	previewLen = 16
)

// MessageInfo describes one framed message found in a dump.
type MessageInfo struct {
	Index          int    `json:"message_id"`
	StartOffset    int    `json:"start_offset"`
	Length         int    `json:"length"`
	ManufacturerID []byte `json:"manufacturer_id"`
	HexPreview     string `json:"hex_preview"`
}

// Report is the survey of one dump.
type Report struct {
	FileSize           int            `json:"file_size"`
	Messages           []MessageInfo  `json:"sysex_messages"`
	ManufacturerCounts map[string]int `json:"manufacturer_counts"`
}

// File surveys a dump file.
func File(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	return Bytes(data), nil
}

// Bytes surveys an in-memory dump. Framing matches the decoder: start
// marker to first subsequent end marker, inclusive, non-overlapping.
func Bytes(data []byte) *Report {
	report := &Report{
		FileSize:           len(data),
		ManufacturerCounts: make(map[string]int),
	}

	pos := 0
	for pos < len(data) {
		start := bytes.IndexByte(data[pos:], startMarker)
		if start < 0 {
			break
		}
		start += pos

		end := bytes.IndexByte(data[start:], endMarker)
		if end < 0 {
			break
		}
		end += start

		message := data[start : end+1]
		info := MessageInfo{
			Index:       len(report.Messages) + 1,
			StartOffset: start,
			Length:      len(message),
			HexPreview:  preview(message),
		}
		// The three bytes after the start marker are the manufacturer ID
		// for the long-form (0x00-prefixed) ID space.
		if len(message) > 3 {
			info.ManufacturerID = bytes.Clone(message[1:4])
			report.ManufacturerCounts[hexKey(info.ManufacturerID)]++
		}

		report.Messages = append(report.Messages, info)
		pos = end + 1
	}

	return report
}

func preview(message []byte) string {
	if len(message) <= previewLen {
		return hexKey(message)
	}

	return hexKey(message[:previewLen]) + "..."
}

func hexKey(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}

	return strings.Join(parts, " ")
}
