package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/matrix"
)

// AudioFilename is the fixed name of the raw PCM stream in a session
// directory.
const AudioFilename = "audio.raw"

// ErrAudioNotFound indicates the raw audio stream is missing from the
// session directory.
var ErrAudioNotFound = errors.New("audio stream not found")

// WriteAudio persists the session's concatenated 16-bit samples as a raw
// little-endian PCM stream with no header.
func WriteAudio(dir string, samples []int16) error {
	path := filepath.Join(dir, AudioFilename)
	if err := os.WriteFile(path, matrix.SamplesToBytes(samples), 0o644); err != nil {
		return fmt.Errorf("writing audio stream: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "WriteAudio",
		"path":     path,
		"samples":  len(samples),
	}).Debug("Audio stream written")

	return nil
}

// ReadAudio loads the session's raw PCM stream back into 16-bit samples.
func ReadAudio(dir string) ([]int16, error) {
	path := filepath.Join(dir, AudioFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, path)
		}
		return nil, fmt.Errorf("reading audio stream: %w", err)
	}
	return matrix.BytesToSamples(data), nil
}
