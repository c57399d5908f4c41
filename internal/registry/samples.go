package registry

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-recognizer/internal/constants"
	"github.com/kozaktomas/face-recognizer/internal/facematch"
)

// SampleStore keeps exemplar sample images under <dir>/<personID>/<faceID>.<ext>
type SampleStore struct {
	dir string
}

// NewSampleStore creates a sample store rooted at dir. The directory is created lazily.
func NewSampleStore(dir string) *SampleStore {
	return &SampleStore{dir: dir}
}

// Save writes the face sample for an exemplar and returns its path.
// The face region (with margin) is cropped, resized and stored as JPEG. When the
// source can't be decoded the original bytes are copied unchanged.
func (s *SampleStore) Save(personID, faceID, sourcePath string, bbox []float64) (string, error) {
	personDir := filepath.Join(s.dir, personID)
	if err := os.MkdirAll(personDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create sample directory: %w", err)
	}

	data, err := os.Open(sourcePath) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	defer data.Close()

	img, _, decodeErr := image.Decode(data)
	if decodeErr != nil {
		log.WithField("source", sourcePath).Debugf("sample source not decodable, copying: %v", decodeErr)
		if _, err := data.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind source image: %w", err)
		}
		dst := filepath.Join(personDir, faceID+strings.ToLower(filepath.Ext(sourcePath)))
		return dst, copyTo(dst, data)
	}

	sample := resizeSample(cropFace(img, bbox), constants.SampleMaxSize)
	dst := filepath.Join(personDir, faceID+".jpg")
	if err := writeJPEG(dst, sample); err != nil {
		return "", err
	}
	return dst, nil
}

// Remove deletes a single sample file. A missing file is not an error.
func (s *SampleStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemovePerson deletes the sample directory of a person.
func (s *SampleStore) RemovePerson(personID string) error {
	if personID == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.dir, personID))
}

func copyTo(dst string, src io.Reader) error {
	out, err := os.Create(dst) //nolint:gosec // path is built from generated IDs
	if err != nil {
		return fmt.Errorf("failed to create sample: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy sample: %w", err)
	}
	return out.Close()
}

// cropFace returns the face region expanded by the sample margin. Invalid boxes
// yield the whole image.
func cropFace(img image.Image, bbox []float64) image.Image {
	bounds := img.Bounds()
	if !facematch.ValidBBox(bbox) {
		return img
	}
	box := facematch.ExpandBBox(bbox, constants.SampleMargin, bounds.Dx(), bounds.Dy())
	rect := image.Rect(
		bounds.Min.X+int(box[0]), bounds.Min.Y+int(box[1]),
		bounds.Min.X+int(box[2]), bounds.Min.Y+int(box[3]),
	).Intersect(bounds)
	if rect.Empty() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// resizeSample fits an image within maxSize while keeping aspect ratio.
func resizeSample(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxSize && height <= maxSize {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, height*maxSize/width)
	} else {
		newHeight = maxSize
		newWidth = max(1, width*maxSize/height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// writeJPEG encodes img to path. A failed write leaves no file behind.
func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is built from generated IDs
	if err != nil {
		return fmt.Errorf("failed to create sample: %w", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: constants.SampleJPEGQuality}); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write sample: %w", err)
	}
	return nil
}
