package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestHTTPDownloadToFile(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("shapefile bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "lisa-cli-test"})
	dest := filepath.Join(t.TempDir(), "counties.zip")

	n, err := f.DownloadToFile(context.Background(), srv.URL+"/counties.zip", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len("shapefile bytes")), n)
	assert.Equal(t, "lisa-cli-test", gotUA)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "shapefile bytes", string(data))
}

func TestHTTPDownloadToFileStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{})
	_, err := f.DownloadToFile(context.Background(), srv.URL+"/missing.zip", filepath.Join(t.TempDir(), "x.zip"))
	assert.ErrorContains(t, err, "returned 404")
}

func TestHTTPDownloadToFileRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{Limiter: rate.NewLimiter(rate.Inf, 1)})
	_, err := f.DownloadToFile(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.zip"))
	assert.NoError(t, err)

	// A canceled context surfaces through the limiter wait.
	blocked := NewHTTPFetcher(HTTPOptions{Limiter: rate.NewLimiter(0, 0)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = blocked.DownloadToFile(ctx, srv.URL, filepath.Join(t.TempDir(), "y.zip"))
	assert.Error(t, err)
}
