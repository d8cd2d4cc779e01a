package framecast

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/capacity"
	"github.com/opd-ai/framecast/codec"
	"github.com/opd-ai/framecast/matrix"
	"github.com/opd-ai/framecast/storage"
)

// DecodeResult summarizes one decode session.
type DecodeResult struct {
	// BytesWritten is the length of the reconstructed output.
	BytesWritten int

	// ExpectedSize is the original size recorded in the session metadata.
	ExpectedSize int

	// Verified is true when the reconstructed length matches ExpectedSize.
	Verified bool
}

// DecodeFile reconstructs the original file from the artifacts in
// inputDir and writes it to outputPath.
//
// The session metadata is the single source of truth: geometry, frame
// order and per-frame byte accounting are all taken from it, not from
// the converter's options. A missing or corrupt metadata record aborts
// the decode before any frame artifact is touched.
//
// When the reconstructed length differs from the recorded original size
// the partial output is still written and the returned error wraps
// ErrSizeMismatch; the DecodeResult is valid in that case.
func (c *Converter) DecodeFile(inputDir, outputPath string) (*DecodeResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputDir)
	}

	meta, err := storage.ReadMetadata(inputDir)
	if err != nil {
		return nil, err
	}

	planner, err := decodePlanner(meta, c.options.MatrixSize)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "DecodeFile",
		"input_dir":     inputDir,
		"original_size": meta.OriginalSize,
		"num_frames":    meta.NumFrames,
	}).Info("Starting decode session")

	var audio []int16
	if meta.NumFrames > 0 {
		audio, err = storage.ReadAudio(inputDir)
		if err != nil {
			return nil, err
		}
	}

	reconstructed := make([]byte, 0, meta.OriginalSize)
	for _, rec := range meta.Frames {
		frameData, err := c.decodeFrame(inputDir, rec, planner, audio)
		if err != nil {
			return nil, err
		}
		reconstructed = append(reconstructed, frameData...)
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
			"function":      "DecodeFile",
			"expected_size": meta.OriginalSize,
			"actual_size":   len(reconstructed),
			"output":        outputPath,
		}).Warn("Size verification failed; partial output written")
		return result, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrSizeMismatch, meta.OriginalSize, len(reconstructed))
	}

	logrus.WithFields(logrus.Fields{
		"function": "DecodeFile",
		"output":   outputPath,
		"size":     len(reconstructed),
	}).Info("Decode session complete")

	return result, nil
}

// decodeFrame recovers one frame's contribution to the output: the
// decompressed video slice followed by the literal overflow bytes from
// the audio channel.
func (c *Converter) decodeFrame(inputDir string, rec storage.FrameRecord, planner *capacity.Planner, audio []int16) ([]byte, error) {
	frameBytes, err := storage.ReadFrame(inputDir, rec.FrameIndex)
	if err != nil {
		return nil, err
	}

	// Slice the compressed payload out of the zero-padded pixel grid by
	// its post-compression length. A truncated frame yields fewer bytes
	// than recorded; the shortfall shows up in the final verification.
	n := rec.Compression.CompressedLength
	if n > len(frameBytes) {
		n = len(frameBytes)
	}
	video := codec.Decompress(frameBytes[:n], rec.Compression)

	// The audio window for this frame is pure arithmetic on the frame
	// index; no running cursor is carried between frames.
	base := rec.FrameIndex * planner.FrameSamples
	matrixSamples := rec.Compression.MatrixSize * rec.Compression.MatrixSize
	if base+planner.FrameSamples > len(audio) || matrixSamples > planner.FrameSamples {
		return nil, fmt.Errorf("%w: audio stream too short for frame %d",
			storage.ErrMalformedMetadata, rec.FrameIndex)
	}

	// The side channel is deserialized for format compliance; its values
	// are not needed to invert the compression.
	if _, err := matrix.FromSamples(audio[base:base+matrixSamples], rec.Compression.MatrixSize); err != nil {
		return nil, fmt.Errorf("frame %d side channel: %w", rec.FrameIndex, err)
	}

	overflowBytes := matrix.SamplesToBytes(audio[base+matrixSamples : base+planner.FrameSamples])
	audioCount := rec.AudioBytes
	if audioCount > len(overflowBytes) {
		audioCount = len(overflowBytes)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "decodeFrame",
		"frame_index": rec.FrameIndex,
		"video_bytes": len(video),
		"audio_bytes": audioCount,
	}).Debug("Frame decoded")

	return append(video, overflowBytes[:audioCount]...), nil
}

// decodePlanner rebuilds the capacity planner from persisted metadata.
// The matrix size lives in the per-frame compression records; sessions
// without frames fall back to the converter default.
func decodePlanner(meta *storage.SessionMetadata, defaultMatrixSize int) (*capacity.Planner, error) {
	matrixSize := defaultMatrixSize
	if len(meta.Frames) > 0 {
		matrixSize = meta.Frames[0].Compression.MatrixSize
	}

	planner, err := capacity.NewPlanner(capacity.Geometry{
		Width:      meta.Width,
		Height:     meta.Height,
		SampleRate: meta.SampleRate,
		Channels:   meta.AudioChannels,
		FPS:        meta.FPS,
		MatrixSize: matrixSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrMalformedMetadata, err)
	}
	return planner, nil
}
