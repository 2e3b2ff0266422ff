package folio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/folio/internal/config"
	"github.com/mesh-intelligence/folio/pkg/types"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	configDir := t.TempDir()
	_, err := config.EnsureDefaults(configDir)
	require.NoError(t, err)

	site, err := Open(Options{
		ConfigDir: configDir,
		DataDir:   t.TempDir(),
		Log:       zaptest.NewLogger(t).Sugar(),
		Record:    true,
	})
	require.NoError(t, err)
	defer site.Close()

	report, err := site.Reconciler.Repair(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Structural())

	rec := types.NewRecord("entries")
	rec.Set("title", types.StringValue("Hello world"))
	id, err := site.Storage.Save(ctx, rec, "")
	require.NoError(t, err)

	got, err := site.Storage.Get(ctx, "entries", id)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", got.Slug)

	stats, ok := site.Stats()
	require.True(t, ok)
	assert.Positive(t, stats.DDL)
	assert.Positive(t, stats.Inserts)
}

func TestOpenWithoutRecord(t *testing.T) {
	site, err := Open(Options{ConfigDir: t.TempDir(), DataDir: t.TempDir()})
	require.NoError(t, err)
	defer site.Close()

	_, ok := site.Stats()
	assert.False(t, ok)
	assert.NotNil(t, site.Gateway())
}

func TestOpenInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := config.EnsureDefaults(dir)
	require.NoError(t, err)
	t.Setenv("FOLIO_DATABASE_DRIVER", "oracle")

	_, err = Open(Options{ConfigDir: dir, DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrDriverUnknown)
}
