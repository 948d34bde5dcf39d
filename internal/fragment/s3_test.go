package fragment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Source_Validation(t *testing.T) {
	_, err := NewS3Source(S3Config{Bucket: "docs"})
	assert.Error(t, err)
	_, err = NewS3Source(S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	src, err := NewS3Source(S3Config{Endpoint: "localhost:9000", Bucket: "docs", Prefix: "/html/"})
	require.NoError(t, err)
	assert.Equal(t, "html/navtreedata.js", src.objectKey("navtreedata.js"))
}

// fakeS3 answers path-style GetObject requests for a single bucket.
func fakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("ETag", `"0123456789abcdef"`)
		w.Header().Set("Last-Modified", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Format(http.TimeFormat))
		w.Write([]byte(body))
	}))
}

func TestS3Source_Fetch(t *testing.T) {
	ts := fakeS3(t, map[string]string{
		"/docs/html/files_dup.js": sampleFragments["files_dup.js"],
	})
	defer ts.Close()

	src, err := NewS3Source(S3Config{
		Endpoint: strings.TrimPrefix(ts.URL, "http://"),
		Bucket:   "docs",
		Prefix:   "html",
	})
	require.NoError(t, err)

	data, err := src.Fetch(context.Background(), "files_dup.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "mpi.hpp")

	_, err = src.Fetch(context.Background(), "gone_dup.js")
	assert.ErrorIs(t, err, ErrNotFound)
}
