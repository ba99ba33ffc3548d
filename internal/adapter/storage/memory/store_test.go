package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framescan/framescan/internal/domain"
)

func TestStoreInitResetsPreviousRun(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Init(ctx, "job-1", "clip.mp4", 5))
	require.NoError(t, store.SetStatus(ctx, "job-1", domain.StatusFailed, "ffmpeg exited 1"))
	require.NoError(t, store.AddResult(ctx, "job-1", domain.JobResult{Content: "OLD", TimestampSeconds: 0.2}))

	require.NoError(t, store.Init(ctx, "job-1", "clip.mp4", 5))

	state, err := store.GetStatus(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, state.Status)
	assert.Empty(t, state.ErrorMessage)

	results, err := store.GetResults(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreSetStatusClearsError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Init(ctx, "job-1", "clip.mp4", 5))
	require.NoError(t, store.SetStatus(ctx, "job-1", domain.StatusFailed, "boom"))
	require.NoError(t, store.SetStatus(ctx, "job-1", domain.StatusProcessing, ""))

	state, err := store.GetStatus(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, state.Status)
	assert.Empty(t, state.ErrorMessage)
}

func TestStoreSetStatusWithoutInit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.SetStatus(ctx, "job-1", domain.StatusProcessing, ""))

	state, err := store.GetStatus(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, state.Status)

	_, err = store.GetMetadata(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreGetStatusUnknownJob(t *testing.T) {
	store := NewStore()

	_, err := store.GetStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreGetResultsUnknownJob(t *testing.T) {
	store := NewStore()

	results, err := store.GetResults(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreResultsSortedByTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Init(ctx, "job-1", "clip.mp4", 5))

	for _, r := range []domain.JobResult{
		{Content: "C", TimestampSeconds: 2.4},
		{Content: "A", TimestampSeconds: 0.2},
		{Content: "B", TimestampSeconds: 1.5},
	} {
		require.NoError(t, store.AddResult(ctx, "job-1", r))
	}

	results, err := store.GetResults(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "A", results[0].Content)
	assert.Equal(t, "B", results[1].Content)
	assert.Equal(t, "C", results[2].Content)
}

func TestStoreConcurrentAddResult(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Init(ctx, "job-1", "clip.mp4", 5))

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.AddResult(ctx, "job-1", domain.JobResult{
				Content:          fmt.Sprintf("code-%03d", i),
				TimestampSeconds: float64(i) * 0.2,
			})
		}(i)
	}
	wg.Wait()

	results, err := store.GetResults(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, results, n)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("code-%03d", i), r.Content)
		assert.InDelta(t, float64(i)*0.2, r.TimestampSeconds, 1e-9)
	}
}

func TestStoreMetadata(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Init(ctx, "job-1", "holiday.mp4", 10))

	meta, err := store.GetMetadata(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "holiday.mp4", meta.FileName)
	assert.Equal(t, float64(10), meta.FramesPerSecond)
	assert.False(t, meta.CreatedAt.IsZero())
}
