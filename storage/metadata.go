package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/codec"
)

// MetadataFilename is the fixed name of the session metadata record.
const MetadataFilename = "metadata.json"

// ErrMalformedMetadata indicates the session metadata is missing, cannot
// be parsed, or fails basic consistency checks. Decode aborts on this
// error before touching any frame artifacts.
var ErrMalformedMetadata = errors.New("session metadata missing or malformed")

// FrameRecord is the per-frame accounting entry persisted in the session
// metadata. VideoBytes is the pre-compression length of the frame's video
// slice; AudioBytes counts only the literal overflow bytes stored in the
// audio channel, excluding the matrix side channel.
type FrameRecord struct {
	FrameIndex  int        `json:"frame_idx"`
	VideoBytes  int        `json:"video_bytes"`
	AudioBytes  int        `json:"audio_bytes"`
	Compression codec.Meta `json:"compression"`
}

// SessionMetadata is the record persisted once per encode session and
// consumed read-only by decode. The field names are part of the on-disk
// format and must not change.
type SessionMetadata struct {
	OriginalFilename string        `json:"original_filename"`
	OriginalSize     int           `json:"original_size"`
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	SampleRate       int           `json:"sample_rate"`
	AudioChannels    int           `json:"audio_channels"`
	NumFrames        int           `json:"num_frames"`
	FPS              int           `json:"fps"`
	Frames           []FrameRecord `json:"frames"`
}

// WriteMetadata persists the session metadata record.
func WriteMetadata(dir string, meta *SessionMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "WriteMetadata",
		"path":       path,
		"num_frames": meta.NumFrames,
	}).Debug("Session metadata written")

	return nil
}

// ReadMetadata loads and validates the session metadata record. Any
// failure is reported as ErrMalformedMetadata so callers can abort decode
// with a single classification.
func ReadMetadata(dir string) (*SessionMetadata, error) {
	path := filepath.Join(dir, MetadataFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, path, err)
	}

	var meta SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMetadata, path, err)
	}

	if meta.OriginalSize < 0 || meta.NumFrames < 0 || len(meta.Frames) != meta.NumFrames {
		return nil, fmt.Errorf("%w: frame count %d does not match %d records",
			ErrMalformedMetadata, meta.NumFrames, len(meta.Frames))
	}

	return &meta, nil
}
