package sysex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
)

// definitionConfig is the declarative definition schema shared by the JSON,
// YAML and TOML loaders. Optional fields are pointers so that "absent" and
// "zero" are distinguishable; defaults are filled explicitly in
// buildDefinition before anything reaches decode logic.
type definitionConfig struct {
	Name             string                     `json:"name" yaml:"name" toml:"name"`
	Version          string                     `json:"version" yaml:"version" toml:"version"`
	Header           headerConfig               `json:"header" yaml:"header" toml:"header"`
	PresetNameOffset *int                       `json:"preset_name_offset" yaml:"preset_name_offset" toml:"preset_name_offset"`
	PresetNameLength *int                       `json:"preset_name_length" yaml:"preset_name_length" toml:"preset_name_length"`
	ChecksumOffset   *int                       `json:"checksum_offset" yaml:"checksum_offset" toml:"checksum_offset"`
	TotalLength      *int                       `json:"total_length" yaml:"total_length" toml:"total_length"`
	Parameters       map[string]parameterConfig `json:"parameters" yaml:"parameters" toml:"parameters"`
}

type headerConfig struct {
	ManufacturerID []int `json:"manufacturer_id" yaml:"manufacturer_id" toml:"manufacturer_id"`
	DeviceID       *int  `json:"device_id" yaml:"device_id" toml:"device_id"`
	ModelID        *int  `json:"model_id" yaml:"model_id" toml:"model_id"`
	Command        *int  `json:"command" yaml:"command" toml:"command"`
}

type parameterConfig struct {
	ByteOffset  *int   `json:"byte_offset" yaml:"byte_offset" toml:"byte_offset"`
	BitMask     *int   `json:"bit_mask" yaml:"bit_mask" toml:"bit_mask"`
	BitShift    *int   `json:"bit_shift" yaml:"bit_shift" toml:"bit_shift"`
	ValueRange  []int  `json:"value_range" yaml:"value_range" toml:"value_range"`
	Category    string `json:"category" yaml:"category" toml:"category"`
	CCNumber    *int   `json:"cc_number" yaml:"cc_number" toml:"cc_number"`
	DataType    string `json:"data_type" yaml:"data_type" toml:"data_type"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// LoadDefinition loads a device format definition from a declarative config
// file. The format is selected by extension: .json, .yaml/.yml or .toml.
//
// Missing required fields (name, header.manufacturer_id, parameters) fail
// here, before any decode or encode attempt; producing silently wrong
// offsets later would be far harder to diagnose.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition config: %w", err)
	}

	var cfg definitionConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedFile, ext)
	}

	return buildDefinition(&cfg)
}

// buildDefinition applies schema defaults and converts the loose config
// shape into an immutable, validated Definition.
func buildDefinition(cfg *definitionConfig) (*Definition, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: name", errs.ErrMissingField)
	}
	if len(cfg.Header.ManufacturerID) == 0 {
		return nil, fmt.Errorf("%w: header.manufacturer_id", errs.ErrMissingField)
	}
	if len(cfg.Parameters) == 0 {
		return nil, fmt.Errorf("%w: parameters", errs.ErrMissingField)
	}

	manufacturer := make([]byte, len(cfg.Header.ManufacturerID))
	for i, b := range cfg.Header.ManufacturerID {
		if b < 0 || b > 0xFF {
			return nil, fmt.Errorf("%w: manufacturer ID byte %d out of range", errs.ErrInvalidDefinition, b)
		}
		manufacturer[i] = byte(b)
	}

	def := &Definition{
		Name:    cfg.Name,
		Version: stringOr(cfg.Version, "1.0"),
		Header: Header{
			ManufacturerID: manufacturer,
			DeviceID:       intOr(cfg.Header.DeviceID, -1),
			ModelID:        intOr(cfg.Header.ModelID, -1),
			Command:        intOr(cfg.Header.Command, -1),
		},
		Parameters:       make(map[string]*ParameterDefinition, len(cfg.Parameters)),
		PresetNameOffset: intOr(cfg.PresetNameOffset, 0),
		PresetNameLength: intOr(cfg.PresetNameLength, DefaultPresetNameLength),
		ChecksumOffset:   intOr(cfg.ChecksumOffset, 0),
		TotalLength:      intOr(cfg.TotalLength, 0),
	}

	for name, pc := range cfg.Parameters {
		if pc.ByteOffset == nil {
			return nil, fmt.Errorf("%w: parameters.%s.byte_offset", errs.ErrMissingField, name)
		}

		dataType, err := format.ParseDataType(pc.DataType)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}

		param := &ParameterDefinition{
			Name:        name,
			ByteOffset:  *pc.ByteOffset,
			BitMask:     uint16(intOr(pc.BitMask, 0xFF)),
			BitShift:    uint8(intOr(pc.BitShift, 0)),
			Min:         DefaultValueMin,
			Max:         DefaultValueMax,
			Category:    stringOr(pc.Category, "unknown"),
			CCNumber:    intOr(pc.CCNumber, -1),
			DataType:    dataType,
			Description: pc.Description,
		}
		switch len(pc.ValueRange) {
		case 0:
		case 2:
			param.Min = pc.ValueRange[0]
			param.Max = pc.ValueRange[1]
		default:
			return nil, fmt.Errorf("%w: parameter %q value_range needs [min, max]", errs.ErrInvalidDefinition, name)
		}

		def.Parameters[name] = param
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return def, nil
}

// WriteConfigTemplate writes a JSON starter config for a new device so the
// schema does not have to be typed out from memory. The manufacturer ID and
// offsets are placeholders to replace with the real device documentation.
func WriteConfigTemplate(deviceName, path string) error {
	template := definitionConfig{
		Name:             deviceName,
		Version:          "1.0",
		PresetNameOffset: ptrOf(100),
		PresetNameLength: ptrOf(16),
		ChecksumOffset:   ptrOf(200),
		TotalLength:      ptrOf(256),
		Header: headerConfig{
			ManufacturerID: []int{0x00, 0x00, 0x00},
			DeviceID:       ptrOf(0x01),
			ModelID:        ptrOf(0x00),
			Command:        ptrOf(0x10),
		},
		Parameters: map[string]parameterConfig{
			"example_parameter": {
				ByteOffset:  ptrOf(10),
				BitMask:     ptrOf(0xFF),
				BitShift:    ptrOf(0),
				ValueRange:  []int{0, 127},
				Category:    "oscillator",
				CCNumber:    ptrOf(74),
				DataType:    "uint8",
				Description: "Example parameter description",
			},
		},
	}

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}

	return fallback
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}

	return fallback
}

func ptrOf[T any](v T) *T {
	return &v
}
