package framecast

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRoundTrip(t *testing.T, options *Options, data []byte) (*EncodeResult, *DecodeResult, []byte) {
	t.Helper()

	converter, err := NewRaw(options)
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

func TestRawRoundTrip(t *testing.T) {
	// 100 bytes over 24-byte frames: 5 frames, the last zero-padded.
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(255 - i%256)
	}

	encodeResult, decodeResult, decoded := rawRoundTrip(t, testOptions(), data)

	assert.Equal(t, 5, encodeResult.NumFrames)
	assert.True(t, decodeResult.Verified)
	assert.Equal(t, data, decoded)
}

func TestRawRoundTripEmpty(t *testing.T) {
	encodeResult, decodeResult, decoded := rawRoundTrip(t, testOptions(), nil)

	assert.Equal(t, 0, encodeResult.NumFrames)
	assert.True(t, decodeResult.Verified)
	assert.Empty(t, decoded)
}

func TestRawRoundTripExactFrameBoundary(t *testing.T) {
	data := make([]byte, 48) // exactly two 24-byte frames
	for i := range data {
		data[i] = byte(i)
	}

	encodeResult, _, decoded := rawRoundTrip(t, testOptions(), data)
	assert.Equal(t, 2, encodeResult.NumFrames)
	assert.Equal(t, data, decoded)
}

func TestRawEncodeInputNotFound(t *testing.T) {
	converter, err := NewRaw(testOptions())
	require.NoError(t, err)

	_, err = converter.EncodeFile(filepath.Join(t.TempDir(), "missing.bin"), t.TempDir())
	if !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Expected ErrInputNotFound, got %v", err)
	}
}

func TestRawFrameRecords(t *testing.T) {
	data := make([]byte, 30)
	encodeResult, _, _ := rawRoundTrip(t, testOptions(), data)

	require.Len(t, encodeResult.Metadata.Frames, 2)
	assert.Equal(t, 24, encodeResult.Metadata.Frames[0].VideoBytes)
	assert.Equal(t, 6, encodeResult.Metadata.Frames[1].VideoBytes)
	for _, rec := range encodeResult.Metadata.Frames {
		assert.Zero(t, rec.AudioBytes)
	}
}
