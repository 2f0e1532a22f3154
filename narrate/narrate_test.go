package narrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	e := New(config.Default())
	_, err := e.Synthesize(context.Background(), "   ", t.TempDir()+"/out.mp3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestWaitBackoffHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := waitBackoff(ctx, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	// A 6s backoff must not be waited out once the context is gone.
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitBackoffCompletes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, waitBackoff(ctx, 0))
}
