// Package capacity provides centralized per-frame byte budget calculations
// for the frame codec. This ensures consistent capacity accounting across
// the encoder, the decoder, and the persistence layer.
package capacity

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	// BytesPerPixel is the number of payload bytes carried by one RGB pixel.
	BytesPerPixel = 3

	// BytesPerSample is the width of one 16-bit PCM audio sample.
	BytesPerSample = 2

	// DefaultMatrixSize is the side length of the transformation matrix
	// embedded in each frame's audio channel.
	DefaultMatrixSize = 16
)

var (
	// ErrInvalidGeometry indicates a non-positive frame geometry value.
	ErrInvalidGeometry = errors.New("invalid frame geometry")

	// ErrAudioCapacity indicates the audio frame is too small to hold the
	// transformation matrix samples.
	ErrAudioCapacity = errors.New("audio frame cannot hold matrix samples")
)

// Geometry describes the fixed per-session frame parameters. All capacity
// values are derived from it alone, before any data is written.
type Geometry struct {
	Width      int
	Height     int
	SampleRate int
	Channels   int
	FPS        int
	MatrixSize int
}

// Validate checks that every geometry value is positive.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidGeometry, g.SampleRate)
	}
	if g.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidGeometry, g.Channels)
	}
	if g.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalidGeometry, g.FPS)
	}
	if g.MatrixSize <= 0 {
		return fmt.Errorf("%w: matrix size %d", ErrInvalidGeometry, g.MatrixSize)
	}
	return nil
}

// Planner holds the per-frame byte budgets for one session. All fields are
// derived once from geometry and never change afterwards.
type Planner struct {
	geometry Geometry

	// VideoBytesPerFrame is the pixel grid capacity: width*height*3.
	VideoBytesPerFrame int

	// SamplesPerFrame is the per-channel sample count: sampleRate/fps,
	// using truncating integer division. Decode re-derives audio offsets
	// from this value, so the truncation is part of the format.
	SamplesPerFrame int

	// FrameSamples is the total interleaved sample count per frame:
	// SamplesPerFrame * channels.
	FrameSamples int

	// AudioBytesPerFrame is the raw audio buffer size: FrameSamples * 2.
	AudioBytesPerFrame int

	// MatrixSamples is the sample footprint of the matrix side channel.
	MatrixSamples int

	// MatrixBytes is the byte footprint of the matrix side channel.
	MatrixBytes int

	// OverflowBytesPerFrame is the audio capacity left for literal file
	// bytes after the matrix side channel is reserved.
	OverflowBytesPerFrame int

	// TotalBytesPerFrame is the usable file payload per frame:
	// VideoBytesPerFrame + OverflowBytesPerFrame.
	TotalBytesPerFrame int
}

// NewPlanner derives a Planner from the given geometry. It fails when the
// geometry is non-positive or when the audio frame is too small to carry
// the matrix side channel.
func NewPlanner(g Geometry) (*Planner, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	p := &Planner{geometry: g}
	p.VideoBytesPerFrame = g.Width * g.Height * BytesPerPixel
	p.SamplesPerFrame = g.SampleRate / g.FPS
	p.FrameSamples = p.SamplesPerFrame * g.Channels
	p.AudioBytesPerFrame = p.FrameSamples * BytesPerSample
	p.MatrixSamples = g.MatrixSize * g.MatrixSize
	p.MatrixBytes = p.MatrixSamples * BytesPerSample

	if p.MatrixSamples > p.FrameSamples {
		return nil, fmt.Errorf("%w: need %d samples, frame holds %d",
			ErrAudioCapacity, p.MatrixSamples, p.FrameSamples)
	}

	p.OverflowBytesPerFrame = p.AudioBytesPerFrame - p.MatrixBytes
	p.TotalBytesPerFrame = p.VideoBytesPerFrame + p.OverflowBytesPerFrame

	logrus.WithFields(logrus.Fields{
		"function":        "NewPlanner",
		"width":           g.Width,
		"height":          g.Height,
		"sample_rate":     g.SampleRate,
		"channels":        g.Channels,
		"fps":             g.FPS,
		"video_capacity":  p.VideoBytesPerFrame,
		"audio_capacity":  p.AudioBytesPerFrame,
		"matrix_bytes":    p.MatrixBytes,
		"total_per_frame": p.TotalBytesPerFrame,
	}).Debug("Capacity planner created")

	return p, nil
}

// Geometry returns the geometry the planner was built from.
func (p *Planner) Geometry() Geometry {
	return p.geometry
}

// NumFrames returns the number of frames needed to carry fileSize payload
// bytes: ceil(fileSize / TotalBytesPerFrame), and 0 for an empty file.
func (p *Planner) NumFrames(fileSize int) int {
	if fileSize <= 0 {
		return 0
	}
	return (fileSize + p.TotalBytesPerFrame - 1) / p.TotalBytesPerFrame
}

// NumVideoFrames returns the frame count for the uncompressed video-only
// layout, where each frame carries VideoBytesPerFrame payload bytes.
func (p *Planner) NumVideoFrames(fileSize int) int {
	if fileSize <= 0 {
		return 0
	}
	return (fileSize + p.VideoBytesPerFrame - 1) / p.VideoBytesPerFrame
}
