package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emissions-platform/internal/config"
	"emissions-platform/pkg/logging"
)

type fakeObjectReader struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeObjectReader) ReadObject(_ context.Context, bucket, key string) ([]byte, error) {
	f.calls = append(f.calls, bucket+"/"+key)
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func newTestFetcher(opts ...Option) *Fetcher {
	return NewFetcher(config.S3Config{}, 5*time.Second, logging.NewNopLogger(), opts...)
}

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"data/emission_data.json":        SchemeFile,
		"/abs/path.json":                 SchemeFile,
		"file:///tmp/x.json":             SchemeFile,
		"https://example.com/data.json":  SchemeHTTPS,
		"HTTP://example.com/data.json":   SchemeHTTP,
		"s3://bucket/key.json":           SchemeS3,
		"gs://bucket/dir/key.json":       SchemeGCS,
		"ftp://example.com/archive.json": "ftp",
	}
	for uri, want := range tests {
		assert.Equal(t, want, Scheme(uri), uri)
	}
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1]`), 0o600))

	f := newTestFetcher()

	data, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))

	data, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(data))
}

func TestFetch_MissingFile(t *testing.T) {
	f := newTestFetcher()

	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, SchemeFile, fetchErr.Scheme)
	assert.False(t, fetchErr.IsTransient())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/emission_data.json":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"id":1}]`))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newTestFetcher(WithHTTPClient(srv.Client()))

	data, err := f.Fetch(context.Background(), srv.URL+"/emission_data.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data))

	tests := []struct {
		path      string
		status    int
		transient bool
	}{
		{"/missing", http.StatusNotFound, false},
		{"/broken", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		_, err := f.Fetch(context.Background(), srv.URL+tt.path)
		require.Error(t, err)

		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, tt.status, fetchErr.StatusCode)
		assert.Equal(t, tt.transient, fetchErr.IsTransient())
		assert.Contains(t, fetchErr.Error(), "HTTP status")
	}
}

func TestFetch_DocumentTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2,3,4,5,6,7,8,9]`), 0o600))

	s3 := &fakeObjectReader{objects: map[string][]byte{"datasets/mines.json": []byte(`[1,2,3,4,5,6,7,8,9]`)}}

	f := newTestFetcher(WithHTTPClient(srv.Client()), WithS3Reader(s3), WithMaxDocumentSize(8))

	tests := []struct {
		name string
		uri  string
	}{
		{"http", srv.URL + "/emission_data.json"},
		{"file", path},
		{"object store", "s3://datasets/mines.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.uri)
			require.Error(t, err)

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.ErrorIs(t, err, ErrDocumentTooLarge)
			assert.False(t, fetchErr.IsTransient())
			assert.Contains(t, fetchErr.Error(), "exceeds 8 bytes")
		})
	}
}

func TestReadDocument(t *testing.T) {
	data, err := readDocument(strings.NewReader("12345678"), 8)
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(data))

	_, err = readDocument(strings.NewReader("123456789"), 8)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestFetch_ObjectStores(t *testing.T) {
	s3 := &fakeObjectReader{objects: map[string][]byte{"datasets/mines.json": []byte("s3-data")}}
	gcs := &fakeObjectReader{objects: map[string][]byte{"datasets/yearly/2024.json": []byte("gcs-data")}}

	f := newTestFetcher(WithS3Reader(s3), WithGCSReader(gcs))

	data, err := f.Fetch(context.Background(), "s3://datasets/mines.json")
	require.NoError(t, err)
	assert.Equal(t, "s3-data", string(data))

	data, err = f.Fetch(context.Background(), "gs://datasets/yearly/2024.json")
	require.NoError(t, err)
	assert.Equal(t, "gcs-data", string(data))

	_, err = f.Fetch(context.Background(), "s3://datasets/absent.json")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, fetchErr.IsTransient())

	assert.Equal(t, []string{"datasets/mines.json", "datasets/absent.json"}, s3.calls)
	assert.NoError(t, f.Close())
}

func TestFetch_ObjectURIWithoutKey(t *testing.T) {
	s3 := &fakeObjectReader{}
	f := newTestFetcher(WithS3Reader(s3))

	_, err := f.Fetch(context.Background(), "s3://bucket-only")
	require.Error(t, err)
	assert.Empty(t, s3.calls)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), "ftp://example.com/data.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}
