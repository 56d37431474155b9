package postgres

import (
	"context"
	"os"
	"testing"

	"shelter-partner/internal/ports/docstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDocStore(t *testing.T, ctx context.Context) (*DocStore, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))

	// Society única por test para no chocar con otros datos.
	society := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM documents WHERE path LIKE $1`, "Societies/"+society+"/%")
	})
	return NewDocStore(db), society
}

func TestDocStore_Integration_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, society := setupDocStore(t, ctx)

	path, err := docstore.AnimalPath(society, "dog", "a-1")
	require.NoError(t, err)

	err = s.UpdateFields(ctx, path, map[string]any{"inCage": false})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	require.NoError(t, s.SetDocument(ctx, path, map[string]any{"id": "a-1", "inCage": true}))
	require.NoError(t, s.UpdateFields(ctx, path, map[string]any{"inCage": false, "startTime": 1000.5}))

	err = s.UpdateFieldsIf(ctx, path, map[string]any{"inCage": true}, map[string]any{"inCage": true})
	assert.ErrorIs(t, err, docstore.ErrPreconditionFailed)
	require.NoError(t, s.UpdateFieldsIf(ctx, path, map[string]any{"inCage": false}, map[string]any{"inCage": true}))

	visit := map[string]any{"id": "v1", "startTime": 1000.5, "endTime": 1400.0}
	require.NoError(t, s.AppendToArrayField(ctx, path, "logs", visit))
	require.NoError(t, s.AppendToArrayField(ctx, path, "logs", visit))

	doc, err := s.GetDocument(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, true, doc.Data["inCage"])
	st, ok := doc.Float("startTime")
	assert.True(t, ok)
	assert.Equal(t, 1000.5, st)
	assert.Len(t, doc.Maps("logs"), 1)

	col, err := docstore.SocietyAnimalsPath(society, "dog")
	require.NoError(t, err)
	docs, err := s.ListDocuments(ctx, col)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, path, docs[0].Path)
}

func TestDocStore_Integration_AppendToNonArrayField(t *testing.T) {
	ctx := context.Background()
	s, society := setupDocStore(t, ctx)

	path, err := docstore.AnimalPath(society, "dog", "scalar-logs")
	require.NoError(t, err)
	require.NoError(t, s.SetDocument(ctx, path, map[string]any{"logs": "legacy"}))

	err = s.AppendToArrayField(ctx, path, "logs", map[string]any{"id": "v1"})
	assert.ErrorIs(t, err, docstore.ErrNotArray)

	doc, err := s.GetDocument(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", doc.Data["logs"])
}

func TestDocStore_Integration_AppendMissingDocument(t *testing.T) {
	ctx := context.Background()
	s, society := setupDocStore(t, ctx)

	path, err := docstore.AnimalPath(society, "cat", "missing")
	require.NoError(t, err)

	err = s.AppendToArrayField(ctx, path, "logs", map[string]any{"id": "v1"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = s.GetDocument(ctx, path)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}
