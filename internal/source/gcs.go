package source

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
)

// GCSReader reads dataset objects from Google Cloud Storage using
// Application Default Credentials.
type GCSReader struct {
	client *gcs.Client
}

// NewGCSReader creates a GCS client
func NewGCSReader(ctx context.Context) (*GCSReader, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcs client: %w", err)
	}
	return &GCSReader{client: client}, nil
}

// ReadObject downloads one object
func (r *GCSReader) ReadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	rd, err := r.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s/%s: %w", bucket, key, err)
	}
	defer rd.Close()
	return readDocument(rd, maxDocumentSize)
}

// Close releases the client
func (r *GCSReader) Close() error {
	return r.client.Close()
}
