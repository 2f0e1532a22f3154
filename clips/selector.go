// Package clips resolves background footage for a target duration, keeping
// a run-scoped history of used ranges so back-to-back outputs don't show
// the same stretch of gameplay.
package clips

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"

	"story-shorts-pipeline/types"
)

// offsetSamples is how many candidate start offsets are scored against the
// recent history before one is chosen.
const offsetSamples = 8

type usedRange struct {
	clipID string
	offset float64
	length float64
}

// History records the (clip, offset, length) ranges selected during one
// run. It is shared by every story advanced in the run, so all access goes
// through its mutex. It is never persisted.
type History struct {
	mu     sync.Mutex
	ranges []usedRange
}

func NewHistory() *History {
	return &History{}
}

func (h *History) record(r usedRange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ranges = append(h.ranges, r)
}

func (h *History) snapshot() []usedRange {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]usedRange, len(h.ranges))
	copy(out, h.ranges)
	return out
}

// Len reports how many ranges have been recorded this run.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ranges)
}

// Selector picks and trims background segments from the library pool.
type Selector struct {
	history *History
}

func NewSelector(history *History) *Selector {
	return &Selector{history: history}
}

// Select resolves background footage of exactly targetDuration seconds.
// A single clip long enough is trimmed at a randomized offset weighted
// away from recently used ranges; otherwise segments are looped across the
// pool until the target is covered. The chosen ranges are appended to the
// run history.
func (s *Selector) Select(targetDuration float64, pool []types.BackgroundClip) (types.Selection, error) {
	if len(pool) == 0 {
		return types.Selection{}, fmt.Errorf("clip pool is empty: %w", types.ErrNoBackgroundAvailable)
	}
	if targetDuration <= 0 {
		return types.Selection{}, fmt.Errorf("target duration %.2fs: %w", targetDuration, types.ErrInvalidInput)
	}

	if sel, ok := s.selectSingle(targetDuration, pool); ok {
		return sel, nil
	}
	return s.selectLooped(targetDuration, pool)
}

// selectSingle handles the common case of one clip covering the whole
// target.
func (s *Selector) selectSingle(target float64, pool []types.BackgroundClip) (types.Selection, bool) {
	var fits []types.BackgroundClip
	for _, c := range pool {
		if c.DurationSec >= target {
			fits = append(fits, c)
		}
	}
	if len(fits) == 0 {
		return types.Selection{}, false
	}

	// Prefer lightly used clips, with a random pick among the top few so
	// the same clip doesn't win every run.
	sort.Slice(fits, func(i, j int) bool { return fits[i].UsedCount < fits[j].UsedCount })
	topN := 3
	if len(fits) < topN {
		topN = len(fits)
	}
	clip := fits[rand.Intn(topN)]

	offset := s.pickOffset(clip, target)
	seg := types.ClipSegment{ClipID: clip.ID, Path: clip.Path, Offset: offset, Length: target}
	s.history.record(usedRange{clipID: clip.ID, offset: offset, length: target})

	log.Printf("[clips] picked %q offset %.1fs length %.1fs", clip.ID, offset, target)
	return types.Selection{Segments: []types.ClipSegment{seg}}, true
}

// pickOffset samples candidate offsets in [0, duration-target] and keeps
// the one overlapping the run history least. Overlap is penalized, not
// forbidden, so a small pool never starves.
func (s *Selector) pickOffset(clip types.BackgroundClip, target float64) float64 {
	slack := clip.DurationSec - target
	if slack <= 0 {
		return 0
	}
	history := s.history.snapshot()

	best := rand.Float64() * slack
	bestPenalty := overlapPenalty(history, clip.ID, best, target)
	for i := 1; i < offsetSamples; i++ {
		candidate := rand.Float64() * slack
		if p := overlapPenalty(history, clip.ID, candidate, target); p < bestPenalty {
			best, bestPenalty = candidate, p
		}
	}
	return best
}

// overlapPenalty totals the seconds by which [offset, offset+length)
// overlaps previously used ranges of the same clip.
func overlapPenalty(history []usedRange, clipID string, offset, length float64) float64 {
	var penalty float64
	end := offset + length
	for _, r := range history {
		if r.clipID != clipID {
			continue
		}
		lo, hi := r.offset, r.offset+r.length
		if offset < hi && lo < end {
			a, b := offset, end
			if lo > a {
				a = lo
			}
			if hi < b {
				b = hi
			}
			penalty += b - a
		}
	}
	return penalty
}

// selectLooped concatenates full passes over the pool until the target is
// covered, trimming the final segment. Cut points are derivable from the
// selection's boundary list.
func (s *Selector) selectLooped(target float64, pool []types.BackgroundClip) (types.Selection, error) {
	var poolTotal float64
	for _, c := range pool {
		poolTotal += c.DurationSec
	}
	if poolTotal <= 0 {
		return types.Selection{}, fmt.Errorf("clip pool has no playable footage: %w", types.ErrNoBackgroundAvailable)
	}

	var segments []types.ClipSegment
	remaining := target
	for remaining > 0 {
		for _, clip := range pool {
			if remaining <= 0 {
				break
			}
			length := clip.DurationSec
			if length > remaining {
				length = remaining
			}
			if length <= 0 {
				continue
			}
			segments = append(segments, types.ClipSegment{
				ClipID: clip.ID, Path: clip.Path, Offset: 0, Length: length,
			})
			s.history.record(usedRange{clipID: clip.ID, offset: 0, length: length})
			remaining -= length
		}
	}

	log.Printf("[clips] looped %d segment(s) to cover %.1fs", len(segments), target)
	return types.Selection{Segments: segments}, nil
}
