package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutOpenList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	runID := uuid.New()
	pdfInfo, err := s.Put(ctx, runID, "szamla.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), pdfInfo.Size)
	assert.Equal(t, runID, pdfInfo.RunID)

	_, err = s.Put(ctx, runID, "invoice_data.xlsx", "application/octet-stream", strings.NewReader("xlsx"))
	require.NoError(t, err)

	rc, info, err := s.Open(ctx, runID, pdfInfo.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "szamla.pdf", info.Name)

	files, err := s.List(ctx, runID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "szamla.pdf", files[0].Name)
}

func TestLocalStorage_OpenUnknown(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := s.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalStorage_SanitizesNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(context.Background(), uuid.New(), "../../etc/passwd", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotContains(t, info.Path, "/")
	assert.NotContains(t, info.Path, "..")
}

func TestLocalStorage_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	runID := uuid.New()
	_, err = s.Put(ctx, runID, "szamla.pdf", "application/pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(base, "not-a-run"), 0o755))

	purged, err := s.PurgeOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = s.PurgeOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = os.Stat(filepath.Join(base, runID.String()))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "not-a-run"))
	assert.NoError(t, err)
}
