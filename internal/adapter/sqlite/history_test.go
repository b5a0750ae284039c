package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/stitcher/internal/domain"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistory_RecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute).Truncate(time.Second)
	finished := time.Now().Truncate(time.Second)

	require.NoError(t, h.Record(ctx, domain.JobResult{
		Job:            domain.VideoJob{Name: "a", URL: "https://example.com/a.m3u8"},
		Status:         domain.StatusCompleted,
		SegmentsTotal:  12,
		SegmentsReused: 4,
		StartedAt:      started,
		FinishedAt:     finished,
	}))
	require.NoError(t, h.Record(ctx, domain.JobResult{
		Job:        domain.VideoJob{Name: "b", URL: "https://example.com/b.m3u8"},
		Status:     domain.StatusFailed,
		Err:        errors.New("manifest unreachable"),
		StartedAt:  started,
		FinishedAt: finished,
	}))

	records, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	assert.Equal(t, "b", records[0].Name)
	assert.Equal(t, domain.StatusFailed, records[0].Status)
	assert.Equal(t, "manifest unreachable", records[0].Error)

	assert.Equal(t, "a", records[1].Name)
	assert.Equal(t, domain.StatusCompleted, records[1].Status)
	assert.Equal(t, 12, records[1].SegmentsTotal)
	assert.Equal(t, 4, records[1].SegmentsReused)
	assert.Empty(t, records[1].Error)
}

func TestHistory_Recent_Limit(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Record(ctx, domain.JobResult{
			Job:        domain.VideoJob{Name: "job", URL: "u"},
			Status:     domain.StatusCompleted,
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
		}))
	}

	records, err := h.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistory_Recent_Empty(t *testing.T) {
	h := newTestHistory(t)

	records, err := h.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistory_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Record(context.Background(), domain.JobResult{
		Job:        domain.VideoJob{Name: "a", URL: "u"},
		Status:     domain.StatusCompleted,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}))
	require.NoError(t, h.Close())

	h2, err := New(path)
	require.NoError(t, err)
	defer h2.Close()

	records, err := h2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
