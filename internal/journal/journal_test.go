package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })

	t0 := time.UnixMilli(1700000000000)
	require.NoError(t, j.Record(ctx, "motion", "LIFT_START", t0))
	require.NoError(t, j.Record(ctx, "motion", "LIFT_COMPLETE", t0.Add(400*time.Millisecond)))
	require.NoError(t, j.Record(ctx, "click", "TRUE", t0.Add(time.Second)))

	entries, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "click", entries[0].Source)
	assert.Equal(t, "TRUE", entries[0].Event)
	assert.Equal(t, "LIFT_COMPLETE", entries[1].Event)
	assert.Equal(t, t0.Add(400*time.Millisecond).UnixMilli(), entries[1].Time.UnixMilli())
	assert.Equal(t, j.Session(), entries[0].SessionID)
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, "motion", "STATIONARY", time.Now()))
	first := j.Session()
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	assert.NotEqual(t, first, j.Session())

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first, entries[0].SessionID)
}
