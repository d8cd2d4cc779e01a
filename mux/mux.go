// Package mux produces a playable container file from an encoded session
// by shelling out to ffmpeg. It is a best-effort convenience path: the
// lossless round trip works from the frame and audio artifacts alone and
// never requires the muxer.
package mux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/framecast/storage"
)

// ErrFFmpegNotFound indicates no ffmpeg executable is available.
var ErrFFmpegNotFound = errors.New("ffmpeg executable not found")

// Muxer combines a session's frame images and raw audio stream into a
// single container video.
type Muxer struct {
	// FFmpegPath overrides the ffmpeg binary location. Empty means look
	// up "ffmpeg" on PATH.
	FFmpegPath string
}

// New returns a Muxer that resolves ffmpeg from PATH.
func New() *Muxer {
	return &Muxer{}
}

func (m *Muxer) ffmpeg() (string, error) {
	if m.FFmpegPath != "" {
		return m.FFmpegPath, nil
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	return path, nil
}

// wavArgs builds the ffmpeg arguments that wrap the raw s16le stream
// into a WAV file.
func wavArgs(audioRaw, audioWav string, sampleRate, channels int) []string {
	return []string{
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-i", audioRaw,
		audioWav,
	}
}

// videoArgs builds the ffmpeg arguments that combine the frame image
// sequence and the WAV audio into a lossless container video.
func videoArgs(framePattern, audioWav, outputVideo string, fps int) []string {
	return []string{
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", framePattern,
		"-i", audioWav,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "0",
		"-c:a", "pcm_s16le",
		"-shortest",
		outputVideo,
	}
}

// Mux reads the session metadata in framesDir and produces outputVideo.
// The raw audio stream is first wrapped into a WAV file next to it.
func (m *Muxer) Mux(ctx context.Context, framesDir, outputVideo string) error {
	ffmpegPath, err := m.ffmpeg()
	if err != nil {
		return err
	}

	meta, err := storage.ReadMetadata(framesDir)
	if err != nil {
		return err
	}

	audioRaw := filepath.Join(framesDir, storage.AudioFilename)
	audioWav := filepath.Join(framesDir, "audio.wav")

	logrus.WithFields(logrus.Fields{
		"function":    "Mux",
		"frames_dir":  framesDir,
		"output":      outputVideo,
		"sample_rate": meta.SampleRate,
		"channels":    meta.AudioChannels,
		"fps":         meta.FPS,
	}).Info("Muxing session into container video")

	cmd := exec.CommandContext(ctx, ffmpegPath, wavArgs(audioRaw, audioWav, meta.SampleRate, meta.AudioChannels)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("converting audio to WAV: %w: %s", err, out)
	}

	framePattern := filepath.Join(framesDir, "frame_%06d.png")
	cmd = exec.CommandContext(ctx, ffmpegPath, videoArgs(framePattern, audioWav, outputVideo, meta.FPS)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("creating container video: %w: %s", err, out)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Mux",
		"output":   outputVideo,
	}).Info("Container video created")

	return nil
}
