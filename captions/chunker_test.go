package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-shorts-pipeline/types"
)

// evenWords builds n contiguous words of the given duration each.
func evenWords(n int, dur float64) []types.Word {
	words := make([]types.Word, n)
	at := 0.0
	for i := range words {
		words[i] = types.Word{Text: "w", Start: at, End: at + dur}
		at += dur
	}
	return words
}

func TestChunkPartitionsWords(t *testing.T) {
	words := evenWords(10, 0.3)
	windows := Chunk(words, 4, 5.0)

	require.Len(t, windows, 3)
	assert.Len(t, windows[0].Words, 4)
	assert.Len(t, windows[1].Words, 4)
	assert.Len(t, windows[2].Words, 2)

	// Concatenation of window words must equal the input exactly.
	var flat []types.Word
	for _, win := range windows {
		require.NotEmpty(t, win.Words)
		flat = append(flat, win.Words...)
	}
	assert.Equal(t, words, flat)

	// No gaps or overlaps in display coverage.
	assert.Equal(t, 0.0, windows[0].Start)
	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1].End, windows[i].Start)
	}
	assert.InDelta(t, 3.0, windows[len(windows)-1].End, 1e-9)
}

func TestChunkDurationLimitBeatsCountLimit(t *testing.T) {
	// Two tight words, then a long pause before the third: the span limit
	// must break the window even though the count cap allows more words.
	words := []types.Word{
		{Text: "a", Start: 0.0, End: 0.4},
		{Text: "b", Start: 0.4, End: 0.8},
		{Text: "c", Start: 6.0, End: 6.4},
	}
	windows := Chunk(words, 10, 2.0)

	require.Len(t, windows, 2)
	assert.Len(t, windows[0].Words, 2)
	assert.Len(t, windows[1].Words, 1)
}

func TestChunkOverlongWordGetsOwnWindow(t *testing.T) {
	words := []types.Word{
		{Text: "short", Start: 0.0, End: 0.5},
		{Text: "loooong", Start: 0.5, End: 9.0},
		{Text: "after", Start: 9.0, End: 9.3},
	}
	windows := Chunk(words, 4, 2.0)

	require.Len(t, windows, 3)
	assert.Equal(t, "loooong", windows[1].Words[0].Text)
	assert.Len(t, windows[1].Words, 1)
	// Only the overlong single word may exceed the span limit.
	assert.LessOrEqual(t, windows[0].Span(), 2.0)
	assert.LessOrEqual(t, windows[2].Span(), 2.0)
}

func TestChunkSpanBound(t *testing.T) {
	words := evenWords(50, 0.7)
	maxDur := 2.0
	windows := Chunk(words, 10, maxDur)
	for _, win := range windows {
		if len(win.Words) > 1 {
			assert.LessOrEqual(t, win.Span(), maxDur+1e-9)
		}
	}
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk(nil, 4, 5.0))
	assert.Nil(t, Chunk([]types.Word{}, 4, 5.0))
}

func TestChunkClampsDisplayEndToNextWindow(t *testing.T) {
	// Word timings that touch exactly: display ranges must not overlap.
	words := []types.Word{
		{Text: "a", Start: 0.0, End: 1.0},
		{Text: "b", Start: 1.0, End: 2.0},
	}
	windows := Chunk(words, 1, 5.0)
	require.Len(t, windows, 2)
	assert.LessOrEqual(t, windows[0].End, windows[1].Start)
}

func TestChunkQuickModeMakesFewerWindows(t *testing.T) {
	words := evenWords(24, 0.3)
	full := Chunk(words, 4, 5.0)
	quick := Chunk(words, 8, 8.0)
	assert.Greater(t, len(full), len(quick))
}
