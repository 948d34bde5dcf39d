package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/navindex"
	"github.com/dgallion1/docnav/internal/navjs"
)

const testDocs = "../../internal/navjs/testdata"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DOCNAV_LOG_LEVEL", "error")
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "classify", "^https://x.org", "a.html#b", "a.html")
	require.NoError(t, err)
	assert.Equal(t, "^https://x.org\texternal\thttps://x.org\n"+
		"a.html#b\tlocal-fragment\ta.html#b\n"+
		"a.html\tlocal-page\ta.html\n", out)
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, "resolve", "--docs", testDocs, "annotated.html", "index.html")
	require.NoError(t, err)
	assert.Equal(t, "annotated.html\tnavtreeindex0\nindex.html\tnavtreeindex0\n", out)

	_, err = run(t, "resolve", "--docs", testDocs, "missing.html")
	assert.ErrorIs(t, err, navindex.ErrUnknownPage)
}

func TestDumpCommand(t *testing.T) {
	out, err := run(t, "dump", "--docs", testDocs)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "ZisaMPI -> index.html", lines[0])
	assert.Contains(t, out, "    Class List -> annotated.html [annotated_dup]\n")

	out, err = run(t, "dump", "--docs", testDocs, "--format", "js")
	require.NoError(t, err)
	doc, err := navjs.ParseDocument([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "ZisaMPI", doc.Tree.Title)

	_, err = run(t, "dump", "--docs", testDocs, "--format", "yaml")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("# Guide\n\n## Install\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api.html"),
		[]byte(`<html><head><title>API</title></head><body><h1 id="top">API</h1></body></html>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("a,b\n"), 0o644))

	out, err := run(t, "import", "--title", "Manual", dir)
	require.NoError(t, err)

	doc, err := navjs.ParseDocument([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "Manual", doc.Tree.Title)

	kids := doc.Tree.Nodes()
	require.Len(t, kids, 2, "csv is skipped")
	assert.Equal(t, "API", kids[0].Title)
	assert.Equal(t, "guide", kids[1].Title)
	assert.Equal(t, navindex.Index{"api.html", "guide.html"}, doc.Index)
	assert.NoError(t, doc.Index.Validate(doc.Tree))
}

func TestImportCommand_NoInput(t *testing.T) {
	_, err := run(t, "import", t.TempDir())
	assert.ErrorIs(t, err, errNoInput)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docnav version dev")
}
