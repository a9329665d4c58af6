// Package httpsegmenter delegates background removal to a rembg-compatible
// HTTP server. The image is posted as the multipart field "file" and the
// server answers with a PNG whose alpha channel holds the subject mask.
package httpsegmenter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/user/portrait/pkg/ports"
)

// DefaultEndpoint is where `rembg s` listens by default.
const DefaultEndpoint = "http://localhost:7000/api/remove"

// DefaultTimeout bounds a single request.
const DefaultTimeout = 60 * time.Second

// Segmenter implements ports.Segmenter over HTTP.
type Segmenter struct {
	endpoint string
	client   *http.Client
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Segmenter) {
		s.client.Timeout = d
	}
}

// New creates a Segmenter posting to endpoint (DefaultEndpoint if empty).
func New(endpoint string, opts ...Option) *Segmenter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	s := &Segmenter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment uploads img and decodes the returned cutout.
func (s *Segmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	body, contentType, err := multipartImage(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "image/png")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("post %s: %s: %s", s.endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}

	out, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func multipartImage(img image.Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", err
	}
	if err := imaging.Encode(part, img, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("encode upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var _ ports.Segmenter = (*Segmenter)(nil)
