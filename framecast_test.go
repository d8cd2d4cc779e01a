package framecast

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOptions is a small geometry that keeps frames tiny: 24 video bytes
// and 16 audio bytes per frame, 8 of which carry the 2x2 matrix.
func testOptions() *Options {
	return &Options{
		Width:      4,
		Height:     2,
		SampleRate: 240,
		Channels:   1,
		FPS:        30,
		MatrixSize: 2,
	}
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func roundTrip(t *testing.T, options *Options, data []byte) (*EncodeResult, *DecodeResult, []byte) {
	t.Helper()

	converter, err := New(options)
	require.NoError(t, err)

	sessionDir := filepath.Join(t.TempDir(), "frames")
	encodeResult, err := converter.EncodeFile(writeInput(t, data), sessionDir)
	require.NoError(t, err)

	outputPath := filepath.Join(t.TempDir(), "decoded.bin")
	decodeResult, err := converter.DecodeFile(sessionDir, outputPath)
	require.NoError(t, err)

	decoded, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	return encodeResult, decodeResult, decoded
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	options := testOptions()
	options.Width = 0
	_, err := New(options)
	assert.Error(t, err)
}

func TestNewNilOptionsUsesDefaults(t *testing.T) {
	converter, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 1920*1080*3, converter.Planner().VideoBytesPerFrame)
}

func TestRoundTripMultiFrameWithOverflow(t *testing.T) {
	// 100 bytes over a 32-byte payload: 4 frames, each carrying overflow
	// bytes in the audio channel after the matrix side channel.
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i * 7)
	}

	encodeResult, decodeResult, decoded := roundTrip(t, testOptions(), data)

	assert.Equal(t, 4, encodeResult.NumFrames)
	assert.Empty(t, encodeResult.ExhaustedFrames)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, data, decoded)
}

func TestRoundTripStereo(t *testing.T) {
	options := testOptions()
	options.Channels = 2

	data := make([]byte, 150)
	for i := range data {
		data[i] = byte(i % 7)
	}

	_, decodeResult, decoded := roundTrip(t, options, data)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, data, decoded)
}

func TestRoundTripEmptyFile(t *testing.T) {
	encodeResult, decodeResult, decoded := roundTrip(t, testOptions(), nil)

	assert.Equal(t, 0, encodeResult.NumFrames)
	assert.Empty(t, encodeResult.Metadata.Frames)
	assert.True(t, decodeResult.Verified)
	assert.Empty(t, decoded)
}

func TestRoundTripSingleByte(t *testing.T) {
	encodeResult, decodeResult, decoded := roundTrip(t, testOptions(), []byte{0xAB})

	require.Equal(t, 1, encodeResult.NumFrames)
	rec := encodeResult.Metadata.Frames[0]
	assert.Equal(t, 0xAB, rec.Compression.DifferentialBase)
	assert.Equal(t, 1, rec.Compression.OriginalLength)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, []byte{0xAB}, decoded)
}

func TestRoundTripRepeatedBytes(t *testing.T) {
	// 10,000 'A's fit one 64x64 frame and pack into 40 run-length triples.
	options := &Options{
		Width: 64, Height: 64,
		SampleRate: 48000, Channels: 2, FPS: 30,
		MatrixSize: 16,
	}
	data := bytes.Repeat([]byte{65}, 10000)

	encodeResult, decodeResult, decoded := roundTrip(t, options, data)

	require.Equal(t, 1, encodeResult.NumFrames)
	rec := encodeResult.Metadata.Frames[0]
	assert.Equal(t, 120, rec.Compression.CompressedLength)
	assert.Less(t, rec.Compression.CompressionRatio, 0.02)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, data, decoded)
}

func TestRoundTripCyclingBytes(t *testing.T) {
	// Cycling 0..255 exercises differential wraparound at every 256-byte
	// boundary across multiple frames.
	options := &Options{
		Width: 64, Height: 64,
		SampleRate: 48000, Channels: 2, FPS: 30,
		MatrixSize: 16,
	}
	data := make([]byte, 0, 256*100)
	for i := 0; i < 100; i++ {
		for v := 0; v < 256; v++ {
			data = append(data, byte(v))
		}
	}

	_, decodeResult, decoded := roundTrip(t, options, data)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, data, decoded)
}

func TestTruncationReportedNotMasked(t *testing.T) {
	// Alternating 1,0 inflates under the codec: each frame's packed
	// payload exceeds the 24-byte video capacity and is truncated.
	data := bytes.Repeat([]byte{1, 0}, 12)

	converter, err := New(testOptions())
	require.NoError(t, err)

	sessionDir := filepath.Join(t.TempDir(), "frames")
	encodeResult, err := converter.EncodeFile(writeInput(t, data), sessionDir)
	require.NoError(t, err)

	require.NotEmpty(t, encodeResult.ExhaustedFrames)
	rec := encodeResult.Metadata.Frames[encodeResult.ExhaustedFrames[0]]
	assert.Greater(t, rec.Compression.CompressionRatio, 1.0)

	outputPath := filepath.Join(t.TempDir(), "decoded.bin")
	decodeResult, err := converter.DecodeFile(sessionDir, outputPath)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Expected ErrSizeMismatch, got %v", err)
	}

	// The verification failure is recoverable: partial output exists.
	require.NotNil(t, decodeResult)
	assert.False(t, decodeResult.Verified)
	out, readErr := os.ReadFile(outputPath)
	require.NoError(t, readErr)
	assert.Equal(t, decodeResult.BytesWritten, len(out))
	assert.Less(t, len(out), len(data))
}

func TestFrameRecordsOrdered(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}

	encodeResult, _, _ := roundTrip(t, testOptions(), data)

	for i, rec := range encodeResult.Metadata.Frames {
		assert.Equal(t, i, rec.FrameIndex)
	}
}

func TestFrameByteAccounting(t *testing.T) {
	options := testOptions()
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}

	encodeResult, _, _ := roundTrip(t, options, data)

	converter, err := New(options)
	require.NoError(t, err)
	p := converter.Planner()

	total := 0
	for _, rec := range encodeResult.Metadata.Frames {
		assert.LessOrEqual(t, rec.VideoBytes, p.VideoBytesPerFrame)
		assert.LessOrEqual(t, rec.AudioBytes, p.OverflowBytesPerFrame)
		assert.Equal(t, rec.VideoBytes, rec.Compression.OriginalLength)
		total += rec.VideoBytes + rec.AudioBytes
	}
	// Contiguous coverage of the input, no gaps and no overlaps.
	assert.Equal(t, len(data), total)
}

func TestEncodeInputNotFound(t *testing.T) {
	converter, err := New(testOptions())
	require.NoError(t, err)

	_, err = converter.EncodeFile(filepath.Join(t.TempDir(), "missing.bin"), t.TempDir())
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Expected ErrInputNotFound, got %v", err)
	}
}

func TestDecodeInputNotFound(t *testing.T) {
	converter, err := New(testOptions())
	require.NoError(t, err)

	_, err = converter.DecodeFile(filepath.Join(t.TempDir(), "missing"), "out.bin")
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Expected ErrInputNotFound, got %v", err)
	}
}

func TestDecodeMissingMetadataAborts(t *testing.T) {
	converter, err := New(testOptions())
	require.NoError(t, err)

	emptyDir := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "out.bin")
	_, err = converter.DecodeFile(emptyDir, outputPath)
	assert.Error(t, err)

	// Decode must abort before writing anything.
	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncodeParallelismDeterministic(t *testing.T) {
	data := make([]byte, 500)
	for i := range data {
		data[i] = byte(i % 5)
	}

	options := testOptions()
	options.Parallelism = 1
	serialEncode, _, serialDecoded := roundTrip(t, options, data)

	options = testOptions()
	options.Parallelism = 8
	parallelEncode, _, parallelDecoded := roundTrip(t, options, data)

	assert.Equal(t, serialEncode.Metadata.Frames, parallelEncode.Metadata.Frames)
	assert.Equal(t, serialDecoded, parallelDecoded)
	assert.Equal(t, data, parallelDecoded)
}
