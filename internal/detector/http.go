package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-recognizer/internal/database"
)

const defaultEmbeddingURL = "http://localhost:8000"

// HTTPDetector detects faces using the embedding server's /embed/face endpoint
type HTTPDetector struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDetector creates a new detector client
func NewHTTPDetector(baseURL string) *HTTPDetector {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &HTTPDetector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// faceResult represents a single detected face in the server response
type faceResult struct {
	FaceIndex  int            `json:"face_index"`
	Dim        int            `json:"dim"`
	Embedding  []float32      `json:"embedding"`
	BBox       []float64      `json:"bbox"` // [x1, y1, x2, y2]
	DetScore   float64        `json:"det_score"`
	Landmarks  [][]float64    `json:"landmarks,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// faceResponse represents the response from the face embedding endpoint
type faceResponse struct {
	FacesCount int          `json:"faces_count"`
	Faces      []faceResult `json:"faces"`
	Model      string       `json:"model"`
}

// Detect uploads the image and converts the detected faces, then applies Filter.
func (d *HTTPDetector) Detect(ctx context.Context, imagePath string, opts database.RecognitionOptions) ([]database.FaceDetection, error) {
	imageData, err := os.ReadFile(imagePath) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	query := url.Values{}
	query.Set("min_face_size", strconv.Itoa(opts.MinFaceSize))
	query.Set("max_face_size", strconv.Itoa(opts.MaxFaceSize))
	query.Set("det_threshold", strconv.FormatFloat(opts.DetectionConfidenceThreshold, 'f', -1, 64))
	query.Set("max_faces", strconv.Itoa(opts.MaxFacesPerImage))
	query.Set("landmarks", strconv.FormatBool(opts.EnableLandmarks))
	query.Set("attributes", strconv.FormatBool(opts.EnableAttributes))

	body, err := d.postMultipartImage(ctx, "/embed/face?"+query.Encode(), filepath.Base(imagePath), imageData)
	if err != nil {
		return nil, err
	}

	var resp faceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]database.FaceDetection, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.BBox) != 4 {
			return nil, fmt.Errorf("face %d has malformed bbox (%d values)", f.FaceIndex, len(f.BBox))
		}
		if len(f.Embedding) == 0 {
			return nil, fmt.Errorf("face %d has empty embedding", f.FaceIndex)
		}
		faces = append(faces, database.FaceDetection{
			BBox:       f.BBox,
			Confidence: f.DetScore,
			Landmarks:  f.Landmarks,
			Attributes: f.Attributes,
			Embedding:  f.Embedding,
		})
	}

	return Filter(faces, opts), nil
}

// postMultipartImage constructs a multipart form with the image data and posts it to the given endpoint.
func (d *HTTPDetector) postMultipartImage(ctx context.Context, endpoint, filename string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// detectMIMEType detects the MIME type from image data
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	return "application/octet-stream"
}
