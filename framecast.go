package framecast

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/capacity"
	"github.com/opd-ai/framecast/matrix"
)

// Options contains configuration options for creating a Converter. The
// geometry fields are fixed for the lifetime of a session; the same
// values must be used for encode and decode.
type Options struct {
	// Width and Height set the pixel grid dimensions per frame.
	Width  int
	Height int

	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of interleaved audio channels.
	Channels int

	// FPS is the frame rate used to derive the per-frame sample budget.
	FPS int

	// MatrixSize is the side length of the transformation matrix carried
	// in the audio side channel.
	MatrixSize int

	// Parallelism bounds the number of frames compressed concurrently
	// during encode. Zero selects the number of CPUs.
	Parallelism int
}

// NewOptions returns Options with the default 1080p/48kHz geometry.
func NewOptions() *Options {
	return &Options{
		Width:      1920,
		Height:     1080,
		SampleRate: 48000,
		Channels:   2,
		FPS:        30,
		MatrixSize: capacity.DefaultMatrixSize,
	}
}

// Converter drives encode and decode sessions for one fixed geometry.
type Converter struct {
	options *Options
	planner *capacity.Planner

	// The matrix side channel depends on geometry alone, so its samples
	// are generated once per converter and reused for every frame.
	matrixBytes []byte
}

// New creates a Converter for the given options. Nil options select the
// defaults. The geometry is validated up front; an audio frame too small
// to carry the matrix side channel is rejected here rather than at the
// first frame.
func New(options *Options) (*Converter, error) {
	if options == nil {
		options = NewOptions()
	}

	planner, err := capacity.NewPlanner(capacity.Geometry{
		Width:      options.Width,
		Height:     options.Height,
		SampleRate: options.SampleRate,
		Channels:   options.Channels,
		FPS:        options.FPS,
		MatrixSize: options.MatrixSize,
	})
	if err != nil {
		return nil, err
	}

	m := matrix.Generate(options.MatrixSize)

	logrus.WithFields(logrus.Fields{
		"function":        "New",
		"width":           options.Width,
		"height":          options.Height,
		"sample_rate":     options.SampleRate,
		"channels":        options.Channels,
		"fps":             options.FPS,
		"matrix_size":     options.MatrixSize,
		"total_per_frame": planner.TotalBytesPerFrame,
	}).Info("Converter created")

	return &Converter{
		options:     options,
		planner:     planner,
		matrixBytes: matrix.SamplesToBytes(m.ToSamples()),
	}, nil
}

// Planner exposes the capacity budgets derived from the converter's
// geometry.
func (c *Converter) Planner() *capacity.Planner {
	return c.planner
}

func (c *Converter) parallelism() int {
	if c.options.Parallelism > 0 {
		return c.options.Parallelism
	}
	return runtime.NumCPU()
}
