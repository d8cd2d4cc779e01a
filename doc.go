// Package framecast encodes arbitrary binary files into sequences of
// fixed-size frame records, each pairing a lossless pixel grid with a
// 16-bit PCM audio buffer, and decodes those records back into the
// original byte-exact file.
//
// # Architecture Overview
//
// The encode pipeline for each frame:
//
//	file slice → differential+RLE compression → pixel grid (video channel)
//	           → matrix side channel + literal overflow → sample buffer (audio channel)
//
// Decode reverses the pipeline per frame using only the persisted session
// metadata and the frame artifacts. The optional container muxer is a
// one-way convenience path; the round trip never depends on it.
//
// # Core Components
//
// The module is organized around small focused packages:
//
//   - capacity: per-frame byte budgets derived from geometry alone
//   - codec: the reversible differential + run-length transform
//   - matrix: the cosine-basis side channel and PCM serialization
//   - storage: PNG frame, raw PCM and JSON metadata persistence
//   - mux: optional ffmpeg-backed container output
//
// # Usage
//
//	converter, err := framecast.New(framecast.NewOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := converter.EncodeFile("input.bin", "frames/")
//	// ...
//	decoded, err := converter.DecodeFile("frames/", "output.bin")
//
// A size verification failure during decode is recoverable: the partial
// output is still written and the error wraps ErrSizeMismatch so callers
// can classify it with errors.Is.
//
// # Capacity Model
//
// Every buffer size is computable from geometry before any data is
// written: the video channel carries width·height·3 bytes per frame, the
// audio channel (sampleRate/fps)·channels 16-bit samples, of which the
// first matrixSize² carry the transformation matrix. Frames whose
// compressed payload exceeds the video capacity are truncated; the
// condition is measurable as a compression ratio above 1 and surfaces as
// a size mismatch on decode rather than a silent success.
package framecast
