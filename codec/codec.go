// Package codec implements the reversible differential plus run-length
// transform applied to each frame's video payload.
//
// The transform pipeline:
//
//	Encode: raw bytes → differential (mod-256 deltas) → run-length → packed payload
//	Decode: packed payload → run-length expand → cumulative sum (mod 256) → raw bytes
//
// Differential encoding stores successive deltas instead of absolute
// values so that slowly-changing data exposes long runs to the run-length
// stage. Both directions use wraparound modular arithmetic; mixing a
// wrapped encode with a clamped decode corrupts any descending byte pair.
package codec

import (
	"github.com/sirupsen/logrus"
)

// escapeByte introduces a run-length triple [escapeByte, value, count].
//
// A literal payload byte equal to escapeByte would be indistinguishable
// from the start of a triple, so the encoder never emits one: runs of
// escapeByte shorter than the usual threshold are escaped as triples too.
// The decoder is unchanged by this rule and still accepts streams from
// encoders that emit bare escape bytes, at the documented risk of
// misreading them.
const escapeByte = 0xFF

// maxRunLength is the largest run a single triple can describe.
const maxRunLength = 255

// minRunLength is the shortest run worth a triple for ordinary values.
const minRunLength = 4

// Meta describes one frame's compression accounting. It is persisted in
// the session metadata and is required to invert the transform: the
// decoder slices CompressedLength bytes out of the zero-padded pixel
// grid and rebuilds the first byte from DifferentialBase.
type Meta struct {
	OriginalLength   int     `json:"original_length"`
	CompressedLength int     `json:"compressed_length"`
	CompressionRatio float64 `json:"compression_ratio"`
	MatrixSize       int     `json:"matrix_size"`
	DifferentialBase int     `json:"differential_base"`
}

// Exhausted reports whether the compressed payload exceeded the capacity
// it was fitted into, meaning the packed frame was truncated and the
// original bytes cannot be recovered from it.
func (m Meta) Exhausted() bool {
	return m.CompressionRatio > 1.0
}

// DifferentialEncode transforms data into wraparound deltas. The first
// output byte is always zero; the first raw byte is returned separately
// as the base required to invert the transform.
func DifferentialEncode(data []byte) ([]byte, byte) {
	if len(data) == 0 {
		return nil, 0
	}

	diff := make([]byte, len(data))
	diff[0] = 0
	for i := 1; i < len(data); i++ {
		diff[i] = data[i] - data[i-1] // byte subtraction wraps mod 256
	}
	return diff, data[0]
}

// DifferentialDecode inverts DifferentialEncode using the recorded base.
// Addition wraps mod 256, matching the encoder.
func DifferentialDecode(diff []byte, base byte) []byte {
	if len(diff) == 0 {
		return nil
	}

	out := make([]byte, len(diff))
	out[0] = base
	for i := 1; i < len(diff); i++ {
		out[i] = out[i-1] + diff[i]
	}
	return out
}

// RunLengthEncode collapses runs of identical bytes. A maximal run of
// count identical values (count capped at 255) becomes the triple
// [255, value, count] when count exceeds 3; shorter runs are emitted
// literally, except runs of the escape byte itself, which are always
// emitted as triples so a bare 0xFF never appears in the output.
func RunLengthEncode(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	compressed := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		value := data[i]
		count := 1
		for i+count < len(data) && data[i+count] == value && count < maxRunLength {
			count++
		}

		if count >= minRunLength || value == escapeByte {
			compressed = append(compressed, escapeByte, value, byte(count))
		} else {
			for k := 0; k < count; k++ {
				compressed = append(compressed, value)
			}
		}
		i += count
	}
	return compressed
}

// RunLengthDecode expands run-length triples. A byte equal to 255 with at
// least two bytes following is read as [255, value, count]; anything else
// is copied literally.
func RunLengthDecode(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}

	decompressed := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if data[i] == escapeByte && i+2 < len(data) {
			value := data[i+1]
			count := int(data[i+2])
			for k := 0; k < count; k++ {
				decompressed = append(decompressed, value)
			}
			i += 3
		} else {
			decompressed = append(decompressed, data[i])
			i++
		}
	}
	return decompressed
}

// Compress runs the full differential + run-length pipeline over one
// frame's video slice and returns the packed payload with its accounting
// metadata. matrixSize is carried through to the metadata so the decoder
// can locate the side channel in the audio stream.
func Compress(data []byte, matrixSize int) ([]byte, Meta) {
	diff, base := DifferentialEncode(data)
	compressed := RunLengthEncode(diff)

	meta := Meta{
		OriginalLength:   len(data),
		CompressedLength: len(compressed),
		CompressionRatio: 1.0,
		MatrixSize:       matrixSize,
		DifferentialBase: int(base),
	}
	if len(data) > 0 {
		meta.CompressionRatio = float64(len(compressed)) / float64(len(data))
	}

	if meta.Exhausted() {
		logrus.WithFields(logrus.Fields{
			"function":          "Compress",
			"original_length":   meta.OriginalLength,
			"compressed_length": meta.CompressedLength,
			"compression_ratio": meta.CompressionRatio,
		}).Debug("Compression expanded payload")
	}

	return compressed, meta
}

// Decompress inverts Compress. It expands the run-length stream, rebuilds
// the raw bytes from the deltas and the recorded base, and trims the
// result to the recorded original length. When the payload was truncated
// at pack time the result may be shorter than OriginalLength; the caller
// surfaces that as a size verification failure.
func Decompress(data []byte, meta Meta) []byte {
	expanded := RunLengthDecode(data)
	original := DifferentialDecode(expanded, byte(meta.DifferentialBase))
	if len(original) > meta.OriginalLength {
		original = original[:meta.OriginalLength]
	}
	return original
}
