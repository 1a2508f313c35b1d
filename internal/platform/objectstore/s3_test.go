package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeStore(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	store, err := NewS3Store(Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		Bucket:       "fleet-documents",
		AccessKey:    "AKIDTEST",
		SecretKey:    "secret",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return store, fake
}

func TestPutAndDelete(t *testing.T) {
	store, fake := newFakeStore(t)
	ctx := context.Background()

	url, err := store.Put(ctx, "vehicles/abc/insurance.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "/fleet-documents/vehicles/abc/insurance.pdf")

	fake.mu.Lock()
	assert.Equal(t, []byte("%PDF-1.4"), fake.objects["/fleet-documents/vehicles/abc/insurance.pdf"])
	assert.Equal(t, "application/pdf", fake.types["/fleet-documents/vehicles/abc/insurance.pdf"])
	fake.mu.Unlock()

	require.NoError(t, store.Delete(ctx, "vehicles/abc/insurance.pdf"))
	fake.mu.Lock()
	assert.Empty(t, fake.objects)
	fake.mu.Unlock()
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "https://cdn.fleet.test", publicBase(Config{PublicURL: "https://cdn.fleet.test/", Bucket: "b"}))
	assert.Equal(t, "http://minio:9000/b", publicBase(Config{Endpoint: "http://minio:9000", Bucket: "b"}))
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com", publicBase(Config{Bucket: "b", Region: "eu-west-1"}))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(Config{Region: "us-east-1"})
	assert.Error(t, err)
}
