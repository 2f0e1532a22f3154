// Package captions groups word timings into on-screen caption windows and
// renders them as SRT or karaoke ASS subtitles.
package captions

import (
	"story-shorts-pipeline/types"
)

// Chunk greedily accumulates consecutive words into caption windows. A
// window closes when adding the next word would push its span past
// maxDuration, or when it already holds maxWords. The duration limit is
// checked first so a long pause can force an early break even under the
// word-count cap. Every word lands in exactly one window and no window is
// empty; a single word longer than maxDuration still gets its own window.
func Chunk(words []types.Word, maxWords int, maxDuration float64) []types.CaptionWindow {
	if len(words) == 0 {
		return nil
	}
	if maxWords < 1 {
		maxWords = 1
	}

	var windows []types.CaptionWindow
	var cur []types.Word

	flush := func() {
		if len(cur) == 0 {
			return
		}
		windows = append(windows, types.CaptionWindow{
			Words: cur,
			Start: cur[0].Start,
			End:   cur[len(cur)-1].End,
		})
		cur = nil
	}

	for _, w := range words {
		if len(cur) > 0 {
			if w.End-cur[0].Start > maxDuration {
				flush()
			} else if len(cur) >= maxWords {
				flush()
			}
		}
		cur = append(cur, w)
	}
	flush()

	// Clamp each display end to the next window's start so windows never
	// overlap even when word timings touch.
	for i := 0; i < len(windows)-1; i++ {
		if windows[i].End > windows[i+1].Start {
			windows[i].End = windows[i+1].Start
		}
	}
	return windows
}
