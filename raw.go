package framecast

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/capacity"
	"github.com/opd-ai/framecast/codec"
	"github.com/opd-ai/framecast/storage"
)

// RawConverter packs file bytes straight into pixel grids: three bytes
// per pixel, no compression and no audio channel. It is the baseline the
// compressing converter is measured against and uses the same frame and
// metadata stores.
type RawConverter struct {
	options *Options
	planner *capacity.Planner
}

// NewRaw creates a RawConverter for the given options. Nil options
// select the defaults.
func NewRaw(options *Options) (*RawConverter, error) {
	converter, err := New(options)
	if err != nil {
		return nil, err
	}
	return &RawConverter{
		options: converter.options,
		planner: converter.planner,
	}, nil
}

// EncodeFile slices the input file into uncompressed pixel frames. The
// last frame is zero-padded; the recorded original size makes the
// padding removable on decode.
func (c *RawConverter) EncodeFile(inputPath, outputDir string) (*EncodeResult, error) {
	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	p := c.planner
	numFrames := p.NumVideoFrames(len(data))
	geometry := p.Geometry()

	logrus.WithFields(logrus.Fields{
		"function":        "RawConverter.EncodeFile",
		"input":           inputPath,
		"file_size":       len(data),
		"bytes_per_frame": p.VideoBytesPerFrame,
		"num_frames":      numFrames,
	}).Info("Starting raw encode session")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	records := make([]storage.FrameRecord, numFrames)
	for idx := 0; idx < numFrames; idx++ {
		start := idx * p.VideoBytesPerFrame
		end := start + p.VideoBytesPerFrame
		if end > len(data) {
			end = len(data)
		}

		fitted := make([]byte, p.VideoBytesPerFrame)
		copy(fitted, data[start:end])

		if err := storage.WriteFrame(outputDir, idx, geometry.Width, geometry.Height, fitted); err != nil {
			return nil, err
		}

		records[idx] = storage.FrameRecord{
			FrameIndex: idx,
			VideoBytes: end - start,
			Compression: codec.Meta{
				OriginalLength:   end - start,
				CompressedLength: end - start,
				CompressionRatio: 1.0,
			},
		}
	}

	meta := &storage.SessionMetadata{
		OriginalFilename: filepath.Base(inputPath),
		OriginalSize:     len(data),
		Width:            geometry.Width,
		Height:           geometry.Height,
		SampleRate:       geometry.SampleRate,
		AudioChannels:    geometry.Channels,
		NumFrames:        numFrames,
		FPS:              geometry.FPS,
		Frames:           records,
	}
	if err := storage.WriteMetadata(outputDir, meta); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "RawConverter.EncodeFile",
		"output_dir": outputDir,
		"num_frames": numFrames,
	}).Info("Raw encode session complete")

	return &EncodeResult{NumFrames: numFrames, Metadata: meta}, nil
}

// DecodeFile reconstructs the original file by concatenating the pixel
// grids in frame order and trimming the zero padding.
func (c *RawConverter) DecodeFile(inputDir, outputPath string) (*DecodeResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputDir)
	}

	meta, err := storage.ReadMetadata(inputDir)
	if err != nil {
		return nil, err
	}

	reconstructed := make([]byte, 0, meta.OriginalSize)
	for _, rec := range meta.Frames {
		frameBytes, err := storage.ReadFrame(inputDir, rec.FrameIndex)
		if err != nil {
			return nil, err
		}
		reconstructed = append(reconstructed, frameBytes...)
	}

	if len(reconstructed) > meta.OriginalSize {
		reconstructed = reconstructed[:meta.OriginalSize]
	}

	if err := os.WriteFile(outputPath, reconstructed, 0o644); err != nil {
		return nil, fmt.Errorf("writing output file: %w", err)
	}

	result := &DecodeResult{
		BytesWritten: len(reconstructed),
		ExpectedSize: meta.OriginalSize,
		Verified:     len(reconstructed) == meta.OriginalSize,
	}
	if !result.Verified {
		logrus.WithFields(logrus.Fields{
			"function":      "RawConverter.DecodeFile",
			"expected_size": meta.OriginalSize,
			"actual_size":   len(reconstructed),
		}).Warn("Size verification failed; partial output written")
		return result, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrSizeMismatch, meta.OriginalSize, len(reconstructed))
	}

	return result, nil
}
