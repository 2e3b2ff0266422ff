package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/internal/config"
	"github.com/mesh-intelligence/folio/internal/storage"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// site is a throwaway configuration and data directory pair.
type site struct {
	configDir string
	dataDir   string
}

func newSite(t *testing.T) site {
	t.Helper()
	return site{
		configDir: filepath.Join(t.TempDir(), "config"),
		dataDir:   t.TempDir(),
	}
}

// run executes the command tree with args against s and returns stdout.
func (s site) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config-dir", s.configDir, "--data-dir", s.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (s site) mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := s.run(t, stdin, args...)
	require.NoError(t, err, out)
	return out
}

func TestInit(t *testing.T) {
	s := newSite(t)

	out := s.mustRun(t, "", "init")
	assert.Contains(t, out, "Created table `folio_entries`.")
	assert.Contains(t, out, "Folio initialized in "+s.configDir)
	for _, name := range []string{config.ConfigFile, config.ContentTypesFile, config.TaxonomyFile} {
		assert.FileExists(t, filepath.Join(s.configDir, name))
	}

	out = s.mustRun(t, "", "init")
	assert.NotContains(t, out, "Created table", "a second init changes nothing")

	out = s.mustRun(t, "", "check")
	assert.Equal(t, "The database schema is up to date.\n", out)
}

func TestCheckAndRepair(t *testing.T) {
	s := newSite(t)
	s.mustRun(t, "", "init")

	ctPath := filepath.Join(s.configDir, config.ContentTypesFile)
	data, err := os.ReadFile(ctPath)
	require.NoError(t, err)
	data = append(data, []byte("\nnotes:\n  fields:\n    body:\n      type: textarea\n")...)
	require.NoError(t, os.WriteFile(ctPath, data, 0o644))

	out := s.mustRun(t, "", "--json", "check")
	var report reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Contains(t, report.Changes, "Created table `folio_notes`.")
	assert.Empty(t, report.Diagnostics)

	out = s.mustRun(t, "", "repair")
	assert.Contains(t, out, "Created table `folio_notes`.")

	out = s.mustRun(t, "", "check")
	assert.Equal(t, "The database schema is up to date.\n", out)
}

func TestRecordCommands(t *testing.T) {
	s := newSite(t)
	s.mustRun(t, "", "init")

	out := s.mustRun(t, `{"values": {"title": "Hello world", "body": "<p>Hi</p>"}, "taxonomy": {"tags": ["go"]}}`, "save", "entries")
	assert.Equal(t, "Saved entries/1\n", out)

	out = s.mustRun(t, "", "get", "entries")
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "Showing 1-1 of 1 (page 1 of 1)")

	out = s.mustRun(t, "", "--json", "get", "entry/1")
	var res storage.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.True(t, res.Single)
	require.NotNil(t, res.Record)
	assert.Equal(t, "hello-world", res.Record.Slug)
	assert.Equal(t, types.StatusDraft, res.Record.Status)
	assert.Equal(t, []string{"go"}, res.Record.Taxonomy["tags"])

	out = s.mustRun(t, "", "patch", "entries", "1", "status", "published")
	assert.Equal(t, "Updated status of entries/1\n", out)

	out = s.mustRun(t, "", "get", "entries", "status=published")
	assert.Contains(t, out, "hello-world")
	out = s.mustRun(t, "", "get", "entries", "status=draft")
	assert.NotContains(t, out, "hello-world")

	out = s.mustRun(t, "", "get", "entry/hello-world")
	assert.Contains(t, out, "published")
	assert.Contains(t, out, "Hello world")

	out = s.mustRun(t, "", "delete", "entries", "1")
	assert.Equal(t, "Deleted entries/1\n", out)

	_, err := s.run(t, "", "delete", "entries", "1")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestSaveFromFile(t *testing.T) {
	s := newSite(t)
	s.mustRun(t, "", "init")

	tmpl := s.mustRun(t, "", "new", "page")
	var rec types.Record
	require.NoError(t, json.Unmarshal([]byte(tmpl), &rec))
	assert.Equal(t, "pages", rec.ContentType)
	assert.Equal(t, types.StatusDraft, rec.Status)
	assert.Contains(t, rec.Taxonomy, "chapters")

	rec.Set("title", types.StringValue("About us"))
	rec.SetTaxonomy("chapters", "meta")
	data, err := json.Marshal(&rec)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "page.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out := s.mustRun(t, "", "--json", "save", "", path)
	var saved types.Record
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, "about-us", saved.Slug)

	out = s.mustRun(t, "", "get", "page/about-us")
	assert.Contains(t, out, "Meta chapter")
}

func TestUserErrors(t *testing.T) {
	s := newSite(t)
	s.mustRun(t, "", "init")

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "unknown content type", args: []string{"get", "widgets"}},
		{name: "malformed parameter", args: []string{"get", "entries", "order"}},
		{name: "invalid limit", args: []string{"get", "entries", "limit=ten"}},
		{name: "invalid id", args: []string{"delete", "entries", "abc"}},
		{name: "missing record", args: []string{"patch", "entries", "99", "title", "x"}},
		{name: "invalid status", args: []string{"patch", "entries", "1", "status", "archived"}},
		{name: "invalid JSON", stdin: "{", args: []string{"save", "entries"}},
		{name: "no content type", stdin: `{"values": {}}`, args: []string{"save"}},
		{name: "missing arguments", args: []string{"patch", "entries"}},
		{name: "unknown flag", args: []string{"get", "entries", "--bogus"}},
		{name: "missing file", args: []string{"save", "entries", filepath.Join(s.dataDir, "nope.json")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.run(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err), err.Error())
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitSuccess},
		{name: "usage", err: userErrorf("bad %s", "input"), want: exitUserError},
		{name: "wrapped not found", err: fmt.Errorf("entries/3: %w", types.ErrNotFound), want: exitUserError},
		{name: "lock held", err: fmt.Errorf("%w: held by x", types.ErrReconcileLocked), want: exitUserError},
		{name: "system", err: errors.New("disk full"), want: exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestVersion(t *testing.T) {
	out := newSite(t).mustRun(t, "", "version")
	assert.True(t, strings.HasPrefix(out, "folio v"))
	assert.Contains(t, out, "module: "+modulePath)
}
