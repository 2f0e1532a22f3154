package types

import (
	"fmt"
	"time"
)

// Stage is one step in a story's processing lifecycle. Stages are ordered
// and monotonic: a story only moves forward unless a re-run is forced.
type Stage int

const (
	StageScraped Stage = iota
	StageSimplified
	StageNarrated
	StageTranscribed
	StageAssembled
)

var stageNames = [...]string{"scraped", "simplified", "narrated", "transcribed", "assembled"}

func (s Stage) String() string {
	if s < StageScraped || s > StageAssembled {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ParseStage maps a stage name back to its Stage value.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Story holds one scraped post and its progress through the pipeline.
// Artifacts and completion times are keyed by stage name so the JSON on
// disk stays readable.
type Story struct {
	ID          string    `json:"id"`
	Subreddit   string    `json:"subreddit"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Body        string    `json:"body"`
	Score       int       `json:"score"`
	URL         string    `json:"url"`
	NumComments int       `json:"num_comments"`
	CreatedUTC  time.Time `json:"created_utc"`

	Stage            Stage                `json:"-"`
	StageName        string               `json:"stage"`
	Artifacts        map[string]string    `json:"artifacts,omitempty"`
	CompletedAt      map[string]time.Time `json:"completed_at,omitempty"`
	AudioDurationSec float64              `json:"audio_duration_sec,omitempty"`
	ErrorKind        string               `json:"error_kind,omitempty"`
	ErrorMessage     string               `json:"error_message,omitempty"`
}

// Artifact returns the stored artifact reference for a stage, or "".
func (s *Story) Artifact(st Stage) string {
	return s.Artifacts[st.String()]
}

// SetArtifact records an artifact reference for a completed stage.
func (s *Story) SetArtifact(st Stage, ref string) {
	if s.Artifacts == nil {
		s.Artifacts = make(map[string]string)
	}
	s.Artifacts[st.String()] = ref
	if s.CompletedAt == nil {
		s.CompletedAt = make(map[string]time.Time)
	}
	s.CompletedAt[st.String()] = time.Now().UTC()
}

// Word is a single spoken token with its offsets in the narration audio.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (w Word) Duration() float64 { return w.End - w.Start }

// Transcript is the ordered word sequence for one narration take.
type Transcript struct {
	Words    []Word  `json:"words"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
}

// CaptionWindow is a group of consecutive words shown as one on-screen
// caption. Start is the first word's start; End is the last word's end,
// clamped to the next window's start so windows never overlap.
type CaptionWindow struct {
	Words []Word  `json:"words"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Text joins the window's words with single spaces.
func (c CaptionWindow) Text() string {
	out := ""
	for i, w := range c.Words {
		if i > 0 {
			out += " "
		}
		out += w.Text
	}
	return out
}

func (c CaptionWindow) Span() float64 { return c.End - c.Start }

// BackgroundClip is one entry in the shared read-only video library.
type BackgroundClip struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Path        string  `json:"path"`
	SourceURL   string  `json:"source_url"`
	DurationSec float64 `json:"duration_sec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	UsedCount   int     `json:"used_count"`
}

// ClipSegment is a trimmed range of a library clip used in one output.
type ClipSegment struct {
	ClipID string  `json:"clip_id"`
	Path   string  `json:"path"`
	Offset float64 `json:"offset"`
	Length float64 `json:"length"`
}

// Selection is the background footage resolved for one target duration.
// Boundaries lists the cut points between segments on the output timeline
// so the assembler can place seamless cuts.
type Selection struct {
	Segments []ClipSegment `json:"segments"`
}

// TotalLength sums the segment lengths.
func (s Selection) TotalLength() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.Length
	}
	return total
}

// Boundaries returns the cumulative cut points between segments, excluding
// 0 and the total length.
func (s Selection) Boundaries() []float64 {
	var out []float64
	var at float64
	for i, seg := range s.Segments {
		at += seg.Length
		if i < len(s.Segments)-1 {
			out = append(out, at)
		}
	}
	return out
}

// AssemblyPlan is the fully resolved input to the assembler: narration
// audio, background segments and caption windows on one shared timeline.
type AssemblyPlan struct {
	StoryID          string          `json:"story_id"`
	AudioPath        string          `json:"audio_path"`
	AudioDurationSec float64         `json:"audio_duration_sec"`
	Background       Selection       `json:"background"`
	Windows          []CaptionWindow `json:"windows"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	FPS              int             `json:"fps"`
	Codec            string          `json:"codec"`
	AudioCodec       string          `json:"audio_codec"`
	Bitrate          string          `json:"bitrate"`
	Quick            bool            `json:"quick"`
}
