package captions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

func sampleWindows() []types.CaptionWindow {
	words := []types.Word{
		{Text: "hello", Start: 0.0, End: 0.5},
		{Text: "there", Start: 0.5, End: 1.0},
		{Text: "world", Start: 1.2, End: 1.8},
	}
	return Chunk(words, 2, 5.0)
}

func TestSRTFormat(t *testing.T) {
	srt := SRT(sampleWindows())

	assert.Contains(t, srt, "1\n00:00:00,000 --> 00:00:01,000\nhello there")
	assert.Contains(t, srt, "world")
	assert.Contains(t, srt, " --> ")
}

func TestASSContainsStyleAndEvents(t *testing.T) {
	cfg := &config.Default().Captions
	track := ASS(sampleWindows(), cfg, 1080, 1920)

	assert.Contains(t, track, "PlayResX: 1080")
	assert.Contains(t, track, "PlayResY: 1920")
	assert.Contains(t, track, "Style: Karaoke,Arial,60,&H00FFFFFF,&H0000FFFF")
	assert.Contains(t, track, "Dialogue: 0,")
	// Active word recolored with the highlight colour.
	assert.Contains(t, track, "{\\c&H0000FFFF}hello{\\c&H00FFFFFF}")
	assert.Contains(t, track, "{\\c&H0000FFFF}there{\\c&H00FFFFFF}")
}

func TestASSHighlightIntervalsCoverWindow(t *testing.T) {
	cfg := &config.Default().Captions
	track := ASS(sampleWindows(), cfg, 1080, 1920)

	// Each word of the first window gets its own dialogue line, and the
	// full window text appears on every line.
	var dialogues []string
	for _, line := range strings.Split(track, "\n") {
		if strings.HasPrefix(line, "Dialogue:") {
			dialogues = append(dialogues, line)
		}
	}
	require.GreaterOrEqual(t, len(dialogues), 3)
	for _, d := range dialogues[:2] {
		assert.Contains(t, d, "hello")
		assert.Contains(t, d, "there")
	}
}

func TestASSEscapesBraces(t *testing.T) {
	cfg := &config.Default().Captions
	windows := []types.CaptionWindow{{
		Words: []types.Word{{Text: "a{b}", Start: 0, End: 1}},
		Start: 0, End: 1,
	}}
	track := ASS(windows, cfg, 1080, 1920)
	assert.Contains(t, track, "a(b)")
}

func TestTimeFormatting(t *testing.T) {
	assert.Equal(t, "0:00:00.00", assTime(0))
	assert.Equal(t, "0:01:01.50", assTime(61.5))
	assert.Equal(t, "1:00:00.00", assTime(3600))
	assert.Equal(t, "00:00:00,000", srtTime(0))
	assert.Equal(t, "00:01:01,500", srtTime(61.5))
	assert.Equal(t, "01:00:00,042", srtTime(3600.042))
}
