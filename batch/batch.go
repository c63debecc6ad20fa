// Package batch decodes directories of SysEx files against a registered
// device format.
//
// Per-file failures are collected into the aggregate result instead of
// aborting the batch; a half-processed preset library is more useful than
// none.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/syxkit/syxkit/internal/options"
	"github.com/syxkit/syxkit/sysex"
)

// FileResult describes one successfully processed input file.
type FileResult struct {
	Path        string `json:"input_file"`
	PresetCount int    `json:"preset_count"`
	Output      string `json:"output_file,omitempty"`
}

// FileFailure describes one input file that could not be processed.
type FileFailure struct {
	Path  string `json:"file"`
	Error string `json:"error"`
}

// Result aggregates a whole batch run.
type Result struct {
	Processed    []FileResult  `json:"processed_files"`
	Failed       []FileFailure `json:"failed_files"`
	TotalPresets int           `json:"total_presets"`
}

// Processor runs batch decodes against a format registry.
type Processor struct {
	library     *sysex.Library
	logger      zerolog.Logger
	writeOutput bool
}

// ProcessorOption represents a functional option for configuring a Processor.
type ProcessorOption = options.Option[*Processor]

// WithLogger replaces the default stderr logger.
func WithLogger(logger zerolog.Logger) ProcessorOption {
	return options.NoError(func(p *Processor) {
		p.logger = logger
	})
}

// WithOutputFiles controls whether a <name>_decoded.json file is written
// next to each successfully decoded input. Enabled by default.
func WithOutputFiles(enabled bool) ProcessorOption {
	return options.NoError(func(p *Processor) {
		p.writeOutput = enabled
	})
}

// NewProcessor creates a batch processor backed by the given registry.
func NewProcessor(library *sysex.Library, opts ...ProcessorOption) (*Processor, error) {
	processor := &Processor{
		library:     library,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		writeOutput: true,
	}
	if err := options.Apply(processor, opts...); err != nil {
		return nil, err
	}

	return processor, nil
}

// DecodeDir decodes every .syx and .json file directly inside dir using the
// given format. The returned error covers only directory-level problems
// (missing dir, unknown format); per-file errors land in Result.Failed.
func (p *Processor) DecodeDir(dir string, formatID sysex.Format) (*Result, error) {
	decoder, err := p.library.GetDecoder(formatID)
	if err != nil {
		return nil, err
	}

	inputs, err := collectInputs(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, path := range inputs {
		presets, err := decoder.DecodeFile(path)
		if err != nil {
			p.logger.Warn().Str("file", path).Err(err).Msg("decode failed")
			result.Failed = append(result.Failed, FileFailure{Path: path, Error: err.Error()})

			continue
		}

		fileResult := FileResult{Path: path, PresetCount: len(presets)}
		if p.writeOutput && len(presets) > 0 {
			output, err := writeDecoded(path, presets)
			if err != nil {
				p.logger.Warn().Str("file", path).Err(err).Msg("write failed")
				result.Failed = append(result.Failed, FileFailure{Path: path, Error: err.Error()})

				continue
			}
			fileResult.Output = output
		}

		p.logger.Info().Str("file", path).Int("presets", len(presets)).Msg("decoded")
		result.Processed = append(result.Processed, fileResult)
		result.TotalPresets += len(presets)
	}

	return result, nil
}

// collectInputs lists the .syx and .json inputs directly inside dir,
// sorted for deterministic processing order. Already-decoded outputs are
// skipped so a rerun does not feed its own results back in.
func collectInputs(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var inputs []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".syx" && ext != ".json" {
			continue
		}
		if strings.HasSuffix(name, "_decoded.json") {
			continue
		}
		inputs = append(inputs, filepath.Join(dir, name))
	}
	sort.Strings(inputs)

	return inputs, nil
}

func writeDecoded(inputPath string, presets []*sysex.DecodedPreset) (string, error) {
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(inputPath)
	output := strings.TrimSuffix(inputPath, ext) + "_decoded.json"
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return "", err
	}

	return output, nil
}
