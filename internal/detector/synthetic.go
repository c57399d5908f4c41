package detector

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

// Synthetic derives faces deterministically from the image bytes. It needs no model
// and exists for development and demos; identical content always yields identical faces.
type Synthetic struct {
	Dim      int // embedding length
	MaxFaces int // upper bound on generated faces per image
}

// NewSynthetic creates a synthetic detector producing dim-length embeddings.
func NewSynthetic(dim int) *Synthetic {
	return &Synthetic{Dim: dim, MaxFaces: 3}
}

// Detect generates between 0 and MaxFaces faces seeded by the SHA-256 of the file.
func (s *Synthetic) Detect(ctx context.Context, imagePath string, opts database.RecognitionOptions) ([]database.FaceDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(imagePath) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if s.Dim <= 0 {
		return nil, fmt.Errorf("synthetic detector: invalid embedding dimension %d", s.Dim)
	}

	sum := sha256.Sum256(data)
	rng := rand.New(rand.NewPCG(binary.LittleEndian.Uint64(sum[0:8]), binary.LittleEndian.Uint64(sum[8:16]))) //nolint:gosec // not security sensitive

	count := rng.IntN(s.MaxFaces + 1)
	faces := make([]database.FaceDetection, 0, count)
	for i := range count {
		size := 40 + rng.Float64()*160
		x := float64(i)*220 + rng.Float64()*20
		y := rng.Float64() * 200

		emb := make([]float32, s.Dim)
		var norm float64
		for j := range emb {
			v := rng.NormFloat64()
			emb[j] = float32(v)
			norm += v * v
		}
		norm = math.Sqrt(norm)
		for j := range emb {
			emb[j] = float32(float64(emb[j]) / norm)
		}

		faces = append(faces, database.FaceDetection{
			BBox:       []float64{x, y, x + size, y + size},
			Confidence: 0.6 + rng.Float64()*0.4,
			Landmarks: [][]float64{
				{x + size*0.3, y + size*0.4}, {x + size*0.7, y + size*0.4},
				{x + size*0.5, y + size*0.6},
				{x + size*0.35, y + size*0.8}, {x + size*0.65, y + size*0.8},
			},
			Embedding: emb,
		})
	}
	return Filter(faces, opts), nil
}
