// Package media uploads image buffers to the external media host.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Store accepts a byte buffer and returns a public URL for it.
type Store interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// CloudinaryStore uploads via Cloudinary's unsigned upload endpoint.
type CloudinaryStore struct {
	uploadURL    string
	uploadPreset string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewCloudinaryStore creates a media store for the given unsigned upload endpoint.
func NewCloudinaryStore(uploadURL, uploadPreset string, logger *zap.Logger) *CloudinaryStore {
	return &CloudinaryStore{
		uploadURL:    uploadURL,
		uploadPreset: uploadPreset,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger.Named("media"),
	}
}

// Upload posts the buffer as a multipart form and returns the hosted URL.
func (s *CloudinaryStore) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("upload_preset", s.uploadPreset); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	if url == "" {
		return "", fmt.Errorf("upload response carried no URL")
	}

	s.logger.Debug("Uploaded media", zap.String("filename", filename), zap.Int("bytes", len(data)))
	return url, nil
}

// Ensure CloudinaryStore implements Store at compile time.
var _ Store = (*CloudinaryStore)(nil)
