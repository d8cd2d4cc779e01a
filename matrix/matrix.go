// Package matrix implements the transformation-matrix side channel
// embedded in each frame's audio payload.
//
// The matrix is a fixed cosine basis derived from the session geometry
// alone; it never depends on frame content. It is serialized into the
// leading 16-bit samples of every audio frame and deserialized on the
// read side for format compliance. The serialization normalizes by the
// per-matrix min/max, which are not persisted, so the round trip recovers
// the normalized shape of the matrix rather than its absolute magnitude.
// Nothing on the decode path consumes the recovered values.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// sampleRange spans the full 16-bit sample space.
	sampleRange = 65535

	// sampleOffset shifts normalized values into signed sample space.
	sampleOffset = 32768
)

// ErrShortBuffer indicates the sample buffer is too small to hold the
// requested matrix.
var ErrShortBuffer = errors.New("sample buffer too small for matrix")

// Matrix is a square transformation matrix stored as a row-major flat
// buffer. The explicit 2D indexing keeps the byte-layout contract of the
// serialized form obvious.
type Matrix struct {
	Size   int
	Values []float64
}

// Generate builds the size×size cosine basis matrix
//
//	M[i][j] = cos((2i+1)·j·π / (2·size))
//
// normalized by its Frobenius norm. The result depends only on size.
func Generate(size int) *Matrix {
	m := &Matrix{
		Size:   size,
		Values: make([]float64, size*size),
	}

	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			m.Values[i*size+j] = math.Cos(float64((2*i+1)*j) * math.Pi / float64(2*size))
		}
	}

	var sumSquares float64
	for _, v := range m.Values {
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)
	if norm > 0 {
		for i := range m.Values {
			m.Values[i] /= norm
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Generate",
		"matrix_size": size,
	}).Debug("Transformation matrix generated")

	return m
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Values[i*m.Size+j]
}

// ToSamples serializes the matrix into 16-bit signed samples. Values are
// min-max normalized to [0,1] and mapped to round(v·65535)−32768; a
// constant matrix serializes to all-zero samples.
func (m *Matrix) ToSamples() []int16 {
	samples := make([]int16, len(m.Values))
	if len(m.Values) == 0 {
		return samples
	}

	minVal, maxVal := m.Values[0], m.Values[0]
	for _, v := range m.Values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}

	if maxVal <= minVal {
		return samples
	}

	scale := maxVal - minVal
	for i, v := range m.Values {
		normalized := (v - minVal) / scale
		samples[i] = int16(int(math.Round(normalized*sampleRange)) - sampleOffset)
	}
	return samples
}

// FromSamples rebuilds a size×size matrix from serialized samples by
// mapping each sample back to [0,1]. The inverse is lossy in absolute
// scale since min/max are not recoverable from the samples.
func FromSamples(samples []int16, size int) (*Matrix, error) {
	needed := size * size
	if len(samples) < needed {
		return nil, fmt.Errorf("%w: need %d samples, have %d", ErrShortBuffer, needed, len(samples))
	}

	m := &Matrix{
		Size:   size,
		Values: make([]float64, needed),
	}
	for i := 0; i < needed; i++ {
		m.Values[i] = (float64(samples[i]) + sampleOffset) / sampleRange
	}
	return m, nil
}

// SamplesToBytes packs 16-bit samples as little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// BytesToSamples unpacks little-endian bytes into 16-bit samples. A
// trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
	}
	return samples
}
