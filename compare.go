package framecast

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// CompareResult reports how the raw and compressing converters perform
// on the same input.
type CompareResult struct {
	InputSize int

	RawFrames      int
	AdvancedFrames int

	// AverageCompressionRatio is the mean per-frame compression ratio of
	// the advanced session.
	AverageCompressionRatio float64

	// RawUtilization and AdvancedUtilization are the input size divided
	// by the total payload capacity of the frames each session emitted.
	RawUtilization      float64
	AdvancedUtilization float64

	RawDuration      time.Duration
	AdvancedDuration time.Duration

	// RawMatch and AdvancedMatch report whether each decode reproduced
	// the input byte-exactly.
	RawMatch      bool
	AdvancedMatch bool
}

// Compare encodes the input with both converters into scratch directories
// under workDir, round-trips each session, and reports frame counts,
// timing and verification outcomes. A size mismatch on either path is
// recorded in the result rather than returned as an error.
func Compare(options *Options, inputPath, workDir string) (*CompareResult, error) {
	original, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	result := &CompareResult{InputSize: len(original)}

	raw, err := NewRaw(options)
	if err != nil {
		return nil, err
	}
	rawDir := filepath.Join(workDir, "raw_frames")
	rawOut := filepath.Join(workDir, "raw_decoded.bin")

	started := time.Now()
	rawEncode, err := raw.EncodeFile(inputPath, rawDir)
	if err != nil {
		return nil, fmt.Errorf("raw encode: %w", err)
	}
	if _, err := raw.DecodeFile(rawDir, rawOut); err != nil && !errors.Is(err, ErrSizeMismatch) {
		return nil, fmt.Errorf("raw decode: %w", err)
	}
	result.RawDuration = time.Since(started)
	result.RawFrames = rawEncode.NumFrames
	result.RawMatch = fileMatches(rawOut, original)
	result.RawUtilization = utilization(len(original), result.RawFrames, raw.planner.VideoBytesPerFrame)

	advanced, err := New(options)
	if err != nil {
		return nil, err
	}
	advancedDir := filepath.Join(workDir, "advanced_frames")
	advancedOut := filepath.Join(workDir, "advanced_decoded.bin")

	started = time.Now()
	advancedEncode, err := advanced.EncodeFile(inputPath, advancedDir)
	if err != nil {
		return nil, fmt.Errorf("advanced encode: %w", err)
	}
	if _, err := advanced.DecodeFile(advancedDir, advancedOut); err != nil && !errors.Is(err, ErrSizeMismatch) {
		return nil, fmt.Errorf("advanced decode: %w", err)
	}
	result.AdvancedDuration = time.Since(started)
	result.AdvancedFrames = advancedEncode.NumFrames
	result.AdvancedMatch = fileMatches(advancedOut, original)
	result.AdvancedUtilization = utilization(len(original), result.AdvancedFrames, advanced.planner.TotalBytesPerFrame)

	if len(advancedEncode.Metadata.Frames) > 0 {
		var sum float64
		for _, rec := range advancedEncode.Metadata.Frames {
			sum += rec.Compression.CompressionRatio
		}
		result.AverageCompressionRatio = sum / float64(len(advancedEncode.Metadata.Frames))
	}

	logrus.WithFields(logrus.Fields{
		"function":          "Compare",
		"input_size":        result.InputSize,
		"raw_frames":        result.RawFrames,
		"advanced_frames":   result.AdvancedFrames,
		"compression_ratio": result.AverageCompressionRatio,
		"raw_match":         result.RawMatch,
		"advanced_match":    result.AdvancedMatch,
	}).Info("Encoder comparison complete")

	return result, nil
}

// utilization reports how much of the emitted frames' payload capacity
// the input actually filled.
func utilization(inputSize, frames, bytesPerFrame int) float64 {
	if frames == 0 || bytesPerFrame == 0 {
		return 0
	}
	return float64(inputSize) / float64(frames*bytesPerFrame)
}

func fileMatches(path string, original []byte) bool {
	decoded, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Equal(decoded, original)
}
