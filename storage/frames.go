package storage

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrFrameNotFound indicates a frame image is missing from the session
// directory.
var ErrFrameNotFound = errors.New("frame image not found")

// ErrFrameCorrupt indicates a frame image could not be decoded or does
// not match the expected geometry.
var ErrFrameCorrupt = errors.New("frame image corrupt")

// FrameFilename returns the canonical name for a frame index, matching
// the frame_%06d.png layout the muxer's input pattern relies on.
func FrameFilename(index int) string {
	return fmt.Sprintf("frame_%06d.png", index)
}

// WriteFrame persists one width×height×3 pixel grid as a lossless PNG.
// pixels must hold exactly width*height*3 bytes in row-major RGB order.
func WriteFrame(dir string, index, width, height int, pixels []byte) error {
	if len(pixels) != width*height*3 {
		return fmt.Errorf("%w: pixel buffer is %d bytes, expected %d",
			ErrFrameCorrupt, len(pixels), width*height*3)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4] = pixels[i*3]
		img.Pix[i*4+1] = pixels[i*3+1]
		img.Pix[i*4+2] = pixels[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}

	path := filepath.Join(dir, FrameFilename(index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding frame %d: %w", index, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "WriteFrame",
		"frame_index": index,
		"path":        path,
	}).Debug("Frame image written")

	return nil
}

// ReadFrame loads a frame image and returns its raw RGB bytes in
// row-major order. The alpha channel is ignored; the 16-bit color values
// reported by the image are shifted back to the exact 8-bit bytes that
// were written.
func ReadFrame(dir string, index int) ([]byte, error) {
	path := filepath.Join(dir, FrameFilename(index))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFrameNotFound, path)
		}
		return nil, fmt.Errorf("opening frame file: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFrameCorrupt, path, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]byte, 0, width*height*3)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels = append(pixels, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}

	return pixels, nil
}
