package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageRoundTrip(t *testing.T) {
	for st := StageScraped; st <= StageAssembled; st++ {
		parsed, err := ParseStage(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}
	_, err := ParseStage("rendered")
	assert.Error(t, err)
}

func TestStageOrdering(t *testing.T) {
	assert.True(t, StageScraped < StageSimplified)
	assert.True(t, StageSimplified < StageNarrated)
	assert.True(t, StageNarrated < StageTranscribed)
	assert.True(t, StageTranscribed < StageAssembled)
}

func TestStoryArtifacts(t *testing.T) {
	s := &Story{ID: "s1"}
	assert.Empty(t, s.Artifact(StageSimplified))

	s.SetArtifact(StageSimplified, "/tmp/s1_simplified.txt")
	assert.Equal(t, "/tmp/s1_simplified.txt", s.Artifact(StageSimplified))
	assert.Empty(t, s.Artifact(StageNarrated))
	assert.False(t, s.CompletedAt["simplified"].IsZero())
}

func TestKindClassifiesWrappedErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{fmt.Errorf("groq: %w", ErrCollaboratorUnavailable), "collaborator_unavailable"},
		{fmt.Errorf("empty body: %w", ErrInvalidInput), "invalid_input"},
		{fmt.Errorf("read transcript: %w", ErrArtifactCorrupt), "artifact_corrupt"},
		{fmt.Errorf("pool: %w", ErrNoBackgroundAvailable), "no_background_available"},
		{fmt.Errorf("28s vs 30s: %w", ErrDurationMismatch), "duration_mismatch"},
		{fmt.Errorf("s1: %w", ErrBusy), "busy"},
		{fmt.Errorf("something else"), "internal"},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, Kind(c.err), "error: %v", c.err)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(fmt.Errorf("tts: %w", ErrCollaboratorUnavailable)))
	assert.True(t, Retryable(ErrBusy))
	assert.False(t, Retryable(ErrInvalidInput))
	assert.False(t, Retryable(ErrDurationMismatch))
}

func TestSelectionBoundaries(t *testing.T) {
	sel := Selection{Segments: []ClipSegment{
		{ClipID: "a", Length: 10},
		{ClipID: "b", Length: 5},
		{ClipID: "a", Length: 2.5},
	}}
	assert.InDelta(t, 17.5, sel.TotalLength(), 1e-9)
	b := sel.Boundaries()
	require.Len(t, b, 2)
	assert.InDelta(t, 10.0, b[0], 1e-9)
	assert.InDelta(t, 15.0, b[1], 1e-9)

	assert.Empty(t, Selection{Segments: []ClipSegment{{Length: 3}}}.Boundaries())
}

func TestCaptionWindowText(t *testing.T) {
	win := CaptionWindow{Words: []Word{
		{Text: "it", Start: 0, End: 0.2},
		{Text: "happened", Start: 0.2, End: 0.7},
	}, Start: 0, End: 0.7}
	assert.Equal(t, "it happened", win.Text())
	assert.InDelta(t, 0.7, win.Span(), 1e-9)
}
