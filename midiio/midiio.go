// Package midiio moves SysEx messages between the codec and real MIDI
// ports.
//
// It works against the gomidi driver interfaces, so any registered driver
// (rtmidi, portmidi, ...) can supply the ports; nothing here depends on a
// concrete backend.
package midiio

import (
	"fmt"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/sysex"
)

// sysexBufferSize sizes the driver-side receive buffer; the largest common
// single-preset dumps are well under 2KB.
const sysexBufferSize = 2048

// SendMessage transmits one raw SysEx message to an output port, opening
// the port first if needed.
func SendMessage(out drivers.Out, data []byte) error {
	if !out.IsOpen() {
		if err := out.Open(); err != nil {
			return fmt.Errorf("failed to open output port: %w", err)
		}
	}

	return out.Send(data)
}

// SendPreset encodes a preset and transmits it to an output port.
func SendPreset(out drivers.Out, encoder *sysex.Encoder, parameters map[string]float64, presetName string) error {
	data, err := encoder.EncodePreset(parameters, presetName)
	if err != nil {
		return err
	}

	return SendMessage(out, data)
}

// CaptureDump listens on an input port and returns the first SysEx message
// that arrives within the timeout. Trigger the dump from the device front
// panel, or send a dump request first with SendMessage.
func CaptureDump(in drivers.In, timeout time.Duration) ([]byte, error) {
	received := make(chan midi.Message, 1)

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		if len(msg) > 0 && msg[0] == sysex.StartMarker {
			select {
			case received <- msg:
			default:
			}
		}
	}, midi.UseSysEx(), midi.SysExBufferSize(sysexBufferSize))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for sysex dump: %w", err)
	}
	defer stop()

	select {
	case msg := <-received:
		return []byte(msg), nil
	case <-time.After(timeout):
		return nil, errs.ErrCaptureTimeout
	}
}

// ControlChanges builds the CC messages that drive the automatable subset
// of a normalized parameter map in real time.
//
// Only parameters that declare a CC number produce a message; values are
// denormalized into the parameter's raw range and clamped to the 0-127 CC
// domain. Messages are ordered by parameter name for determinism.
func ControlChanges(def *sysex.Definition, parameters map[string]float64, channel uint8) []midi.Message {
	names := make([]string, 0, len(parameters))
	for name := range parameters {
		if param, ok := def.Parameters[name]; ok && param.CCNumber >= 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	messages := make([]midi.Message, 0, len(names))
	for _, name := range names {
		param := def.Parameters[name]
		raw := min(max(param.Denormalize(parameters[name]), 0), 127)
		messages = append(messages, midi.ControlChange(channel, uint8(param.CCNumber), uint8(raw)))
	}

	return messages
}
