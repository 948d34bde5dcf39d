package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/fragment"
	"github.com/dgallion1/docnav/internal/site"
)

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	return newDirServer(t, "../navjs/testdata", apiKey)
}

// newDirServer serves the build in dir and reloads it from there.
func newDirServer(t *testing.T, dir, apiKey string) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := fragment.NewDirSource(dir)
	load := func(ctx context.Context) (*site.Site, *fragment.Expander, error) {
		s, err := site.Load(ctx, src, log)
		if err != nil {
			return nil, nil, err
		}
		exp, err := fragment.NewExpander(src, 16, log)
		if err != nil {
			return nil, nil, err
		}
		return s, exp, nil
	}

	s, exp, err := load(context.Background())
	require.NoError(t, err)
	srv := NewServer(s, exp, log, config.Config{APIKey: apiKey, CheckWorkers: 2})
	srv.SetLoader(load)
	return srv
}

// copyBuild copies the sample build into a temporary directory.
func copyBuild(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"navtreedata.js", "annotated_dup.js", "namespacezisa.js"} {
		data, err := os.ReadFile(filepath.Join("..", "navjs", "testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func post(t *testing.T, srv http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv http.Handler, url string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, ""), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ZisaMPI", body["root"])
	assert.Equal(t, "index.html", body["root_page"])
	assert.Equal(t, float64(1), body["index_entries"])
}

func TestIndex(t *testing.T) {
	rec := get(t, newTestServer(t, ""), "/api/index")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RootPage string           `json:"root_page"`
		Entries  []indexEntryView `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "index.html", body.RootPage)
	assert.Equal(t, []indexEntryView{{Page: "annotated.html", Key: "navtreeindex0"}}, body.Entries)
}

func TestTree(t *testing.T) {
	srv := newTestServer(t, "")

	rec := get(t, srv, "/api/tree?depth=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var root nodeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, "ZisaMPI", root.Title)
	assert.Equal(t, "eager", root.Kind)
	require.NotEmpty(t, root.Children)
	assert.Equal(t, "ZisaMemory", root.Children[0].Title)
	assert.Empty(t, root.Children[0].Children, "depth 1 stops below the top level")

	last := root.Children[len(root.Children)-1]
	assert.Equal(t, "external", last.Link)
	assert.Equal(t, "https://github.com/1uc/ZisaMemory", last.Href)

	rec = get(t, srv, "/api/tree?depth=deep")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlat_Filter(t *testing.T) {
	rec := get(t, newTestServer(t, ""), "/api/tree/flat?q=class+list")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Entries []entryView `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	e := body.Entries[0]
	assert.Equal(t, []string{"ZisaMPI", "Classes", "Class List"}, e.Path)
	assert.Equal(t, 2, e.Depth)
	assert.True(t, e.Lazy)
}

func TestFragment(t *testing.T) {
	srv := newTestServer(t, "")

	rec := get(t, srv, "/api/fragments/annotated_dup")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Key      string     `json:"key"`
		Children []nodeView `json:"children"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Children, 1)
	assert.Equal(t, "zisa", body.Children[0].Title)
	assert.Equal(t, "namespacezisa", body.Children[0].Key)

	rec = get(t, srv, "/api/fragments/files_dup")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFragment_OnlyKnownKeys(t *testing.T) {
	srv := newTestServer(t, "")

	for _, key := range []string{"navtreedata", "navtreeindex0", "nope"} {
		rec := get(t, srv, "/api/fragments/"+key)
		assert.Equal(t, http.StatusNotFound, rec.Code, key)
		assert.Contains(t, decode(t, rec)["error"], "unknown fragment", key)
	}

	// A nested key becomes known once the fragment naming it is loaded.
	rec := get(t, srv, "/api/fragments/namespacezisa")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/fragments/annotated_dup").Code)

	rec = get(t, srv, "/api/fragments/namespacezisa")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Children []nodeView `json:"children"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Children, 1)
	assert.Equal(t, "mpi", body.Children[0].Title)
	require.Len(t, body.Children[0].Children, 2)
	assert.Equal(t, "Communicator", body.Children[0].Children[0].Title)
}

func TestResolveAndLocate(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		url      string
		wantCode int
		wantKey  string
	}{
		{"/api/resolve/annotated.html", http.StatusOK, "navtreeindex0"},
		{"/api/resolve/index.html", http.StatusOK, "navtreeindex0"},
		{"/api/resolve/classes.html", http.StatusNotFound, ""},
		{"/api/locate/classes.html", http.StatusOK, "navtreeindex0"},
		{"/api/locate/aaa.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := get(t, srv, tt.url)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			body := decode(t, rec)
			if tt.wantKey != "" {
				assert.Equal(t, tt.wantKey, body["key"])
				assert.Equal(t, true, body["root"])
			} else {
				assert.Contains(t, body["error"], "unknown page")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	srv := newTestServer(t, "")

	tests := map[string]string{
		"%5Ehttps%3A%2F%2Fgithub.com%2F1uc": "external",
		"md_cmake.html%23cmake_flags":       "local-fragment",
		"files.html":                        "local-page",
		"":                                  "local-page",
	}
	for target, want := range tests {
		rec := get(t, srv, "/api/classify?target="+target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, want, decode(t, rec)["kind"], "target %q", target)
	}

	rec := get(t, srv, "/api/classify")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabels(t *testing.T) {
	rec := get(t, newTestServer(t, ""), "/api/labels")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "click to disable panel synchronisation", body["on"])
	assert.Equal(t, "click to enable panel synchronisation", body["off"])
}

func TestSidebar(t *testing.T) {
	srv := newTestServer(t, "")

	rec := get(t, srv, "/api/sidebar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), `href="md_cmake.html#cmake_flags"`)
	assert.NotContains(t, rec.Body.String(), "Communicator")

	rec = get(t, srv, "/api/sidebar?expand=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Communicator")
}

func TestReload(t *testing.T) {
	dir := copyBuild(t)
	srv := newDirServer(t, dir, "")

	rec := get(t, srv, "/api/fragments/annotated_dup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"zisa"`)

	// A new build renames the root and the namespace.
	data, err := os.ReadFile(filepath.Join(dir, "navtreedata.js"))
	require.NoError(t, err)
	data = []byte(strings.Replace(string(data), `"ZisaMPI"`, `"ZisaMPI 2"`, 1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "navtreedata.js"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotated_dup.js"),
		[]byte("var annotated_dup =\n[\n  [ \"zisa2\", \"namespacezisa.html\", null ]\n];\n"), 0o644))

	assert.Equal(t, "ZisaMPI", decode(t, get(t, srv, "/health"))["root"], "nothing changes before a reload")

	rec = post(t, srv, "/api/reload")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ZisaMPI 2", decode(t, rec)["root"])

	assert.Equal(t, "ZisaMPI 2", decode(t, get(t, srv, "/health"))["root"])
	rec = get(t, srv, "/api/fragments/annotated_dup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"zisa2"`, "fragments come from the new build")
}

func TestReload_FailureKeepsCurrentBuild(t *testing.T) {
	dir := copyBuild(t)
	srv := newDirServer(t, dir, "")

	require.NoError(t, os.Remove(filepath.Join(dir, "navtreedata.js")))
	rec := post(t, srv, "/api/reload")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "ZisaMPI", decode(t, get(t, srv, "/health"))["root"])
}

func TestReload_WithoutLoader(t *testing.T) {
	s, err := site.Load(context.Background(), fragment.NewDirSource("../navjs/testdata"), nil)
	require.NoError(t, err)
	srv := NewServer(s, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), config.Config{})

	rec := post(t, srv, "/api/reload")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.ErrorIs(t, srv.Reload(context.Background()), ErrReloadUnavailable)
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, "secret")

	assert.Equal(t, http.StatusOK, get(t, srv, "/health").Code, "health stays public")
	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/labels").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/labels", "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/labels", "Authorization", "Bearer secret").Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, srv, "/api/reload").Code, "reload needs the key")
}
