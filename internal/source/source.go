// Package source retrieves raw dataset documents from local files, HTTP
// endpoints and object stores.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"emissions-platform/internal/config"
	"emissions-platform/pkg/logging"
)

// Schemes understood by Fetch. A URI without a scheme is a local path.
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
)

// maxDocumentSize bounds how much of a dataset document is read into memory
const maxDocumentSize = 64 << 20

// ErrDocumentTooLarge reports a dataset document over the size limit
var ErrDocumentTooLarge = errors.New("document too large")

// FetchError reports a dataset that could not be retrieved
type FetchError struct {
	URI        string
	Scheme     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP status %d", e.URI, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether retrying later could succeed
func (e *FetchError) IsTransient() bool {
	if errors.Is(e.Err, ErrDocumentTooLarge) {
		return false
	}
	if e.StatusCode != 0 {
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	}
	return e.Scheme != SchemeFile && e.Scheme != ""
}

// ObjectReader reads one object from a bucket-addressed store
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Fetcher dispatches a dataset URI to the matching backend. Object-store
// clients are created on first use so that deployments reading only local
// files never need cloud credentials.
type Fetcher struct {
	httpClient *http.Client
	s3Config   config.S3Config
	logger     *logging.StructuredLogger
	maxSize    int64

	mu  sync.Mutex
	s3  ObjectReader
	gcs ObjectReader
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client used for http(s) URIs
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithMaxDocumentSize lowers the largest document Fetch accepts
func WithMaxDocumentSize(n int64) Option {
	return func(f *Fetcher) { f.maxSize = n }
}

// WithS3Reader installs the reader used for s3:// URIs
func WithS3Reader(r ObjectReader) Option {
	return func(f *Fetcher) { f.s3 = r }
}

// WithGCSReader installs the reader used for gs:// URIs
func WithGCSReader(r ObjectReader) Option {
	return func(f *Fetcher) { f.gcs = r }
}

// NewFetcher creates a Fetcher
func NewFetcher(s3cfg config.S3Config, timeout time.Duration, logger *logging.StructuredLogger, opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		s3Config:   s3cfg,
		logger:     logger,
		maxSize:    maxDocumentSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Scheme returns the backend scheme a URI dispatches to
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// no scheme, or a Windows drive letter
		return SchemeFile
	}
	return strings.ToLower(u.Scheme)
}

// Fetch retrieves the document at uri. Every failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	scheme := Scheme(uri)

	f.logger.Debug(ctx, "[FETCH_START] Fetching dataset", logging.Fields{
		"uri":    uri,
		"scheme": scheme,
	})

	var (
		data []byte
		err  error
	)
	switch scheme {
	case SchemeFile:
		data, err = f.readFile(uri)
	case SchemeHTTP, SchemeHTTPS:
		return f.readHTTP(ctx, uri)
	case SchemeS3, SchemeGCS:
		data, err = f.readObject(ctx, scheme, uri)
	default:
		err = fmt.Errorf("unsupported scheme %q", scheme)
	}

	if err == nil && int64(len(data)) > f.maxSize {
		err = tooLarge(f.maxSize)
	}
	if err != nil {
		return nil, &FetchError{URI: uri, Scheme: scheme, Err: err}
	}
	return data, nil
}

// readDocument reads r to the end, failing once more than limit bytes arrive
func readDocument(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return fmt.Errorf("%w: exceeds %d bytes", ErrDocumentTooLarge, limit)
}

func (f *Fetcher) readFile(uri string) ([]byte, error) {
	path := uri
	if strings.HasPrefix(uri, SchemeFile+"://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		path = u.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readDocument(file, f.maxSize)
}

func (f *Fetcher) readHTTP(ctx context.Context, uri string) ([]byte, error) {
	scheme := Scheme(uri)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{URI: uri, Scheme: scheme, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URI: uri, Scheme: scheme, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URI:        uri,
			Scheme:     scheme,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := readDocument(resp.Body, f.maxSize)
	if err != nil {
		return nil, &FetchError{URI: uri, Scheme: scheme, Err: err}
	}
	return data, nil
}

func (f *Fetcher) readObject(ctx context.Context, scheme, uri string) ([]byte, error) {
	bucket, key, err := splitObjectURI(uri)
	if err != nil {
		return nil, err
	}

	reader, err := f.objectReader(ctx, scheme)
	if err != nil {
		return nil, err
	}
	return reader.ReadObject(ctx, bucket, key)
}

func (f *Fetcher) objectReader(ctx context.Context, scheme string) (ObjectReader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch scheme {
	case SchemeS3:
		if f.s3 == nil {
			r, err := NewS3Reader(ctx, f.s3Config)
			if err != nil {
				return nil, err
			}
			f.s3 = r
		}
		return f.s3, nil
	case SchemeGCS:
		if f.gcs == nil {
			r, err := NewGCSReader(ctx)
			if err != nil {
				return nil, err
			}
			f.gcs = r
		}
		return f.gcs, nil
	default:
		return nil, fmt.Errorf("no object store for scheme %q", scheme)
	}
}

// splitObjectURI splits scheme://bucket/key/path into bucket and key
func splitObjectURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object URI %q needs both bucket and key", uri)
	}
	return bucket, key, nil
}

// Close releases any object-store clients that were created
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range []ObjectReader{f.s3, f.gcs} {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				return fmt.Errorf("failed to close object reader: %w", err)
			}
		}
	}
	return nil
}
