package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/authcore-api/internal/media"
	"github.com/njprem/authcore-api/internal/repository/ports"
)

const maxRemotePhotoBytes = 5 << 20

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProfilePhotoCache copies provider avatars into our own bucket so profile
// pages do not hotlink the identity provider.
type ProfilePhotoCache struct {
	storage      ports.ObjectStorage
	processor    media.Processor
	httpClient   HTTPClient
	bucket       string
	maxDimension int
}

func NewProfilePhotoCache(storage ports.ObjectStorage, processor media.Processor, bucket string, maxDimension int) *ProfilePhotoCache {
	return &ProfilePhotoCache{
		storage:      storage,
		processor:    processor,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		bucket:       bucket,
		maxDimension: maxDimension,
	}
}

// Cache downloads pictureURL and stores it under the user's profile prefix,
// returning the stored object's URL.
func (c *ProfilePhotoCache) Cache(ctx context.Context, userID uuid.UUID, pictureURL string) (string, error) {
	pictureURL = strings.TrimSpace(pictureURL)
	if pictureURL == "" {
		return "", fmt.Errorf("profile photo: empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pictureURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile photo: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemotePhotoBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("profile photo: empty body")
	}
	if len(data) > maxRemotePhotoBytes {
		return "", fmt.Errorf("profile photo: body exceeds %d bytes", maxRemotePhotoBytes)
	}

	upload := media.Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: resp.Header.Get("Content-Type"),
	}
	reader, size, contentType, err := prepareImageForUpload(ctx, c.processor, upload, c.maxDimension)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	objectName := fmt.Sprintf("profiles/%s/federated/%s%s", userID, uuid.NewString(), media.ExtensionFor(contentType))
	return c.storage.Upload(ctx, c.bucket, objectName, contentType, reader, size)
}

func prepareImageForUpload(ctx context.Context, processor media.Processor, upload media.Upload, maxDimension int) (io.Reader, int64, string, error) {
	if processor == nil {
		return upload.Reader, upload.Size, upload.ContentType, nil
	}
	result, err := processor.Process(ctx, upload, maxDimension)
	if err != nil {
		return nil, 0, "", err
	}
	return bytes.NewReader(result.Bytes), int64(len(result.Bytes)), result.ContentType, nil
}
