package assemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-shorts-pipeline/types"
)

func planWith(audioSec float64, segLengths ...float64) *types.AssemblyPlan {
	var segs []types.ClipSegment
	for _, l := range segLengths {
		segs = append(segs, types.ClipSegment{ClipID: "c", Path: "/lib/c.mp4", Length: l})
	}
	return &types.AssemblyPlan{
		StoryID:          "s1",
		AudioDurationSec: audioSec,
		Background:       types.Selection{Segments: segs},
	}
}

func TestValidateWithinTolerance(t *testing.T) {
	// 30.0s audio vs 30.04s background at 0.1s tolerance: fine.
	assert.NoError(t, Validate(planWith(30.0, 30.04), 0.1))
}

func TestValidateMismatch(t *testing.T) {
	// 28.0s background cannot cover 30.0s of audio.
	err := Validate(planWith(30.0, 28.0), 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDurationMismatch))
}

func TestValidateExactBoundary(t *testing.T) {
	assert.NoError(t, Validate(planWith(30.0, 30.1), 0.1))
	assert.Error(t, Validate(planWith(30.0, 30.11), 0.1))
}

func TestValidateSumsSegments(t *testing.T) {
	assert.NoError(t, Validate(planWith(60.0, 20.0, 20.0, 20.02), 0.1))
	err := Validate(planWith(60.0, 20.0, 20.0), 0.1)
	assert.True(t, errors.Is(err, types.ErrDurationMismatch))
}

func TestValidateRejectsEmptyBackground(t *testing.T) {
	err := Validate(planWith(0.0), 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoBackgroundAvailable))
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, "/tmp/a.ass", escapeFilterPath("/tmp/a.ass"))
	assert.Equal(t, "C\\:/tmp/a.ass", escapeFilterPath(`C:\tmp\a.ass`))
}
