// Package errs defines the sentinel errors shared across syxkit packages.
//
// Callers can match them with errors.Is regardless of the wrapping context
// added at the call site.
package errs

import "errors"

var (
	// ErrFormatNotFound indicates a registry lookup for an unregistered format identifier.
	ErrFormatNotFound = errors.New("format not found")

	// ErrInvalidDefinition indicates a device format definition that fails validation.
	ErrInvalidDefinition = errors.New("invalid definition")

	// ErrMissingField indicates a definition config missing a required schema field.
	ErrMissingField = errors.New("missing required field")

	// ErrUnsupportedFile indicates a file extension the loader or decoder cannot handle.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrNoSysExData indicates an input that contains no SysEx payload.
	ErrNoSysExData = errors.New("no sysex data")

	// ErrMessageTooShort indicates a message buffer too small for the configured header.
	ErrMessageTooShort = errors.New("message too short")

	// ErrInvalidMagic indicates a preset bank without the expected magic number.
	ErrInvalidMagic = errors.New("invalid bank magic")

	// ErrChecksumMismatch indicates a preset bank whose integrity hash does not match.
	ErrChecksumMismatch = errors.New("bank checksum mismatch")

	// ErrInvalidCompression indicates an unknown compression type flag.
	ErrInvalidCompression = errors.New("invalid compression type")

	// ErrBankTruncated indicates a preset bank shorter than its own framing.
	ErrBankTruncated = errors.New("bank truncated")

	// ErrCaptureTimeout indicates that no SysEx dump arrived within the listen window.
	ErrCaptureTimeout = errors.New("timed out waiting for sysex dump")
)
