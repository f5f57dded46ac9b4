package ports

import (
	"context"
	"io"
)

// ObjectStorage stores binary objects and returns the URL clients should use
// to fetch them.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
}
