package framecast

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/framecast/codec"
	"github.com/opd-ai/framecast/matrix"
	"github.com/opd-ai/framecast/storage"
)

// EncodeResult summarizes one encode session.
type EncodeResult struct {
	// NumFrames is the number of frame records emitted.
	NumFrames int

	// Metadata is the session record persisted alongside the artifacts.
	Metadata *storage.SessionMetadata

	// ExhaustedFrames lists the indices of frames whose compressed video
	// payload exceeded the frame capacity and was truncated. Such frames
	// cannot be recovered and will surface as a size mismatch on decode.
	ExhaustedFrames []int
}

// EncodeFile slices the input file into frames, compresses each frame's
// video payload, embeds the matrix side channel and literal overflow in
// the audio channel, and persists the frame images, the raw audio stream
// and the session metadata into outputDir.
//
// Frames are compressed concurrently; assembly of the audio stream and
// the metadata records is ordered by frame index, so the output is
// deterministic for a given input and geometry.
func (c *Converter) EncodeFile(inputPath, outputDir string) (*EncodeResult, error) {
	info, err := os.Stat(inputPath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	p := c.planner
	numFrames := p.NumFrames(len(data))

	logrus.WithFields(logrus.Fields{
		"function":        "EncodeFile",
		"input":           inputPath,
		"file_size":       len(data),
		"video_capacity":  p.VideoBytesPerFrame,
		"audio_capacity":  p.AudioBytesPerFrame,
		"total_per_frame": p.TotalBytesPerFrame,
		"num_frames":      numFrames,
	}).Info("Starting encode session")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	records := make([]storage.FrameRecord, numFrames)
	audioFrames := make([][]int16, numFrames)

	var group errgroup.Group
	group.SetLimit(c.parallelism())

	for idx := 0; idx < numFrames; idx++ {
		idx := idx
		group.Go(func() error {
			return c.encodeFrame(data, idx, outputDir, records, audioFrames)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Concatenate the per-frame audio buffers in frame order.
	allAudio := make([]int16, 0, numFrames*p.FrameSamples)
	for idx := 0; idx < numFrames; idx++ {
		allAudio = append(allAudio, audioFrames[idx]...)
	}
	if err := storage.WriteAudio(outputDir, allAudio); err != nil {
		return nil, err
	}

	geometry := p.Geometry()
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

	result := &EncodeResult{
		NumFrames: numFrames,
		Metadata:  meta,
	}
	for _, rec := range records {
		if rec.Compression.Exhausted() {
			result.ExhaustedFrames = append(result.ExhaustedFrames, rec.FrameIndex)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":         "EncodeFile",
		"output_dir":       outputDir,
		"num_frames":       numFrames,
		"exhausted_frames": len(result.ExhaustedFrames),
	}).Info("Encode session complete")

	return result, nil
}

// encodeFrame processes one frame slice: split, compress, pack the pixel
// grid, and build the audio buffer. Workers write into disjoint indices
// of records and audioFrames, and each frame image is a distinct file,
// so no locking is needed.
func (c *Converter) encodeFrame(data []byte, idx int, outputDir string, records []storage.FrameRecord, audioFrames [][]int16) error {
	p := c.planner
	geometry := p.Geometry()

	start := idx * p.TotalBytesPerFrame
	end := start + p.TotalBytesPerFrame
	if end > len(data) {
		end = len(data)
	}
	slice := data[start:end]

	videoLen := len(slice)
	if videoLen > p.VideoBytesPerFrame {
		videoLen = p.VideoBytesPerFrame
	}
	videoSlice := slice[:videoLen]
	overflow := slice[videoLen:]

	compressed, meta := codec.Compress(videoSlice, geometry.MatrixSize)
	if meta.Exhausted() {
		logrus.WithFields(logrus.Fields{
			"function":          "encodeFrame",
			"frame_index":       idx,
			"compressed_length": meta.CompressedLength,
			"video_capacity":    p.VideoBytesPerFrame,
			"compression_ratio": meta.CompressionRatio,
		}).Warn("Compressed payload exceeds frame capacity; truncating")
	}

	// Fit into exactly the video capacity: zero-pad or truncate.
	fitted := make([]byte, p.VideoBytesPerFrame)
	copy(fitted, compressed)

	if err := storage.WriteFrame(outputDir, idx, geometry.Width, geometry.Height, fitted); err != nil {
		return err
	}

	// Audio layout: matrix side channel, then literal overflow bytes,
	// zero-padded to the fixed frame size.
	audioBytes := make([]byte, p.AudioBytesPerFrame)
	copy(audioBytes, c.matrixBytes)
	copy(audioBytes[p.MatrixBytes:], overflow)
	audioFrames[idx] = matrix.BytesToSamples(audioBytes)

	records[idx] = storage.FrameRecord{
		FrameIndex:  idx,
		VideoBytes:  videoLen,
		AudioBytes:  len(overflow),
		Compression: meta,
	}

	logrus.WithFields(logrus.Fields{
		"function":          "encodeFrame",
		"frame_index":       idx,
		"video_bytes":       videoLen,
		"audio_bytes":       len(overflow),
		"compression_ratio": meta.CompressionRatio,
	}).Debug("Frame encoded")

	return nil
}
