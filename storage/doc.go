// Package storage implements the persistence collaborators for encode and
// decode sessions: the lossless pixel-frame store, the raw PCM audio
// store, and the session metadata store.
//
// A session directory holds:
//
//	frame_000000.png ... frame_NNNNNN.png  one lossless RGB image per frame
//	audio.raw                              concatenated s16le samples, no header
//	metadata.json                          the session metadata record
//
// The frame store requires exact byte fidelity: a pixel grid written with
// WriteFrame reads back byte-identical with ReadFrame. PNG satisfies this
// for 8-bit opaque RGB; any lossy image codec would break the decode
// contract.
//
// The metadata schema is stable across versions since decode cannot
// proceed without it: snake_case keys, per-frame records nested under
// "frames".
package storage
