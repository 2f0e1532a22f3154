package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-shorts-pipeline/types"
)

func TestFileStoryStoreRoundTrip(t *testing.T) {
	s, err := NewFileStoryStore(t.TempDir())
	require.NoError(t, err)

	story := &types.Story{
		ID:         "abc123",
		Subreddit:  "nosleep",
		Title:      "the basement",
		Body:       "it started with a knock",
		Stage:      types.StageNarrated,
		CreatedUTC: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	story.SetArtifact(types.StageSimplified, "/tmp/abc123_simplified.txt")
	story.AudioDurationSec = 42.5

	require.NoError(t, s.Save(story))

	loaded, err := s.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, types.StageNarrated, loaded.Stage)
	assert.Equal(t, "narrated", loaded.StageName)
	assert.Equal(t, story.Title, loaded.Title)
	assert.Equal(t, "/tmp/abc123_simplified.txt", loaded.Artifact(types.StageSimplified))
	assert.InDelta(t, 42.5, loaded.AudioDurationSec, 1e-9)
}

func TestFileStoryStoreLoadMissing(t *testing.T) {
	s, err := NewFileStoryStore(t.TempDir())
	require.NoError(t, err)
	_, err = s.Load("ghost")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoryStoreList(t *testing.T) {
	s, err := NewFileStoryStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(&types.Story{ID: "a"}))
	require.NoError(t, s.Save(&types.Story{ID: "b"}))

	ids, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestFileClipLibrary(t *testing.T) {
	l, err := NewFileClipLibrary(t.TempDir())
	require.NoError(t, err)

	// Empty index reads as an empty pool, not an error.
	pool, err := l.Clips()
	require.NoError(t, err)
	assert.Empty(t, pool)

	clip := types.BackgroundClip{ID: "yt-1", Path: "/lib/yt-1.mp4", DurationSec: 120}
	require.NoError(t, l.Add(clip))
	require.NoError(t, l.Add(clip)) // duplicate IDs are ignored

	pool, err = l.Clips()
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, 0, pool[0].UsedCount)

	require.NoError(t, l.MarkUsed("yt-1"))
	require.NoError(t, l.MarkUsed("yt-1"))
	pool, err = l.Clips()
	require.NoError(t, err)
	assert.Equal(t, 2, pool[0].UsedCount)

	assert.Error(t, l.MarkUsed("missing"))
}

func TestFileOutputStorePut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileOutputStore(dir)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "render.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video bytes"), 0644))

	ref, err := s.Put("s1", src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "s1.mp4"), ref)

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}
