package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	createWidgets(t, b)
	r := NewRecorder(b)

	id, err := r.Insert(ctx, "widgets", map[string]any{"name": "cog"})
	require.NoError(t, err)
	_, err = r.Update(ctx, "widgets", map[string]any{"size": 2}, map[string]any{"id": id})
	require.NoError(t, err)
	_, err = r.Query(ctx, `SELECT * FROM "widgets"`)
	require.NoError(t, err)
	_, err = r.Exec(ctx, `DELETE FROM "widgets" WHERE "id" = ?`, id)
	require.NoError(t, err)
	_, err = r.Exec(ctx, `CREATE TABLE "gizmos" ("id" INTEGER)`)
	require.NoError(t, err)

	s, err := r.Pin(ctx)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "widgets", map[string]any{"name": "axle"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stats := r.Stats()
	assert.Equal(t, Stats{Reads: 1, Inserts: 2, Updates: 1, Deletes: 1, DDL: 1}, stats)
	assert.Equal(t, 4, stats.Writes())

	r.Reset()
	assert.Zero(t, r.Stats().Writes())
}
