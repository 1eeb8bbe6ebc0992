package face

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNoImages is returned when an enrollment contains no decodable image.
var ErrNoImages = errors.New("no decodable images")

// Store persists face enrollment artifacts on the local filesystem: the raw
// images and one averaged encoding vector per enrollment, grouped under a
// per-student directory with a shared prefix.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// EnrollResult reports what an enrollment produced.
type EnrollResult struct {
	Saved        int    `json:"saved"`
	Encoded      int    `json:"encoded"`
	ImagePath    string `json:"image_path"`
	EncodingPath string `json:"encoding_path"`
}

// Enroller combines the artifact store with the encoding service.
type Enroller struct {
	Store  *Store
	Client *Client
}

// Enroll decodes and saves the submitted images, encodes each saved image,
// and writes the component-wise average of all successful encodings.
// Enrollment succeeds as long as at least one image was decodable, even when
// nothing could be encoded; verification for such a student later fails with
// a missing reference.
func (e *Enroller) Enroll(ctx context.Context, sid string, images []string) (EnrollResult, error) {
	prefix := uuid.NewString()[:8]
	saved, err := e.Store.SaveImages(sid, prefix, images)
	if err != nil {
		return EnrollResult{}, err
	}

	var encodings [][]float64
	for i, img := range images {
		enc, err := e.Client.Embed(ctx, stripDataURL(img))
		if err != nil {
			log.Printf("enroll %s: image %d not encoded: %v", sid, i, err)
			continue
		}
		encodings = append(encodings, enc)
	}

	res := EnrollResult{
		Saved:     len(saved),
		Encoded:   len(encodings),
		ImagePath: saved[0],
	}
	if len(encodings) > 0 {
		path, err := e.Store.SaveEncoding(sid, prefix, Average(encodings))
		if err != nil {
			return EnrollResult{}, err
		}
		res.EncodingPath = path
	}
	return res, nil
}

// SaveImages writes every decodable image to disk and returns their paths.
// Fails only when no image decodes.
func (s *Store) SaveImages(sid, prefix string, images []string) ([]string, error) {
	dir := filepath.Join(s.Dir, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for i, img := range images {
		raw, err := base64.StdEncoding.DecodeString(stripDataURL(img))
		if err != nil {
			log.Printf("enroll %s: image %d not decodable: %v", sid, i, err)
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", prefix, i))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, ErrNoImages
	}
	return paths, nil
}

// SaveEncoding writes the reference vector as JSON next to the images.
func (s *Store) SaveEncoding(sid, prefix string, enc []float64) (string, error) {
	dir := filepath.Join(s.Dir, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, prefix+".json")
	data, err := json.Marshal(enc)
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o644)
}

// LoadEncoding reads a reference vector written by SaveEncoding.
func (s *Store) LoadEncoding(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var enc []float64
	if err := json.Unmarshal(data, &enc); err != nil {
		return nil, err
	}
	return enc, nil
}

// Average reduces encodings component-wise to a single reference vector.
// Vectors shorter than the first are padded with zeros; in practice the
// service always returns a fixed length.
func Average(encodings [][]float64) []float64 {
	if len(encodings) == 0 {
		return nil
	}
	out := make([]float64, len(encodings[0]))
	for _, enc := range encodings {
		for i := range out {
			if i < len(enc) {
				out[i] += enc[i]
			}
		}
	}
	for i := range out {
		out[i] /= float64(len(encodings))
	}
	return out
}

// Distance is the Euclidean distance between two encodings. Mismatched
// lengths compare as maximally distant.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// stripDataURL removes a data URL header ("data:image/jpeg;base64,...") when
// present; scan pages submit frames in that form.
func stripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}
