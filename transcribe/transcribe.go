// Package transcribe produces word-level timings for narration audio by
// running the whisper CLI, with an optional estimated fallback when
// whisper is not installed.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

// Whisper transcribes audio through the whisper CLI with word timestamps.
type Whisper struct {
	cfg     *config.Config
	workDir string
}

func New(cfg *config.Config, workDir string) *Whisper {
	return &Whisper{cfg: cfg, workDir: workDir}
}

// whisperJSON mirrors the JSON whisper writes next to the audio file.
type whisperJSON struct {
	Segments []struct {
		End   float64 `json:"end"`
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
	Language string `json:"language"`
}

// Transcribe runs whisper and parses its word-level output. Unreadable or
// silent audio surfaces as an artifact-corrupt failure.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error) {
	if fi, err := os.Stat(audioPath); err != nil || fi.Size() == 0 {
		return nil, fmt.Errorf("audio %s unreadable or empty: %w", audioPath, types.ErrArtifactCorrupt)
	}
	if _, err := exec.LookPath("whisper"); err != nil {
		return nil, fmt.Errorf("whisper not installed: %w", types.ErrCollaboratorUnavailable)
	}

	log.Printf("[transcribe] Running whisper (%s) on %s...", w.cfg.Transcription.WhisperModel, audioPath)

	if err := os.MkdirAll(w.workDir, 0755); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx,
		"whisper",
		audioPath,
		"--model", w.cfg.Transcription.WhisperModel,
		"--language", w.cfg.Transcription.Language,
		"--output_format", "json",
		"--output_dir", w.workDir,
		"--word_timestamps", "True",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper failed: %v: %w", err, types.ErrArtifactCorrupt)
	}

	// Whisper writes <audio base>.json into the output dir.
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outFile := filepath.Join(w.workDir, base+".json")
	data, err := os.ReadFile(outFile)
	if err != nil {
		return nil, fmt.Errorf("whisper output missing: %v: %w", err, types.ErrArtifactCorrupt)
	}

	var raw whisperJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse whisper output: %v: %w", err, types.ErrArtifactCorrupt)
	}

	transcript := &types.Transcript{Language: raw.Language}
	for _, seg := range raw.Segments {
		for _, word := range seg.Words {
			text := strings.TrimSpace(word.Word)
			if text == "" {
				continue
			}
			transcript.Words = append(transcript.Words, types.Word{
				Text: text, Start: word.Start, End: word.End,
			})
		}
		if seg.End > transcript.Duration {
			transcript.Duration = seg.End
		}
	}
	if n := len(transcript.Words); n > 0 {
		if end := transcript.Words[n-1].End; end > transcript.Duration {
			transcript.Duration = end
		}
	}
	if len(transcript.Words) == 0 {
		return nil, fmt.Errorf("whisper found no words in %s: %w", audioPath, types.ErrArtifactCorrupt)
	}

	log.Printf("[transcribe] ✅ %d words, %.1fs", len(transcript.Words), transcript.Duration)
	return transcript, nil
}

// Estimate spreads the words of text evenly across audioDuration. When
// the duration is unknown it is derived from the word count at
// wordsPerMinute. Fallback for when whisper is unavailable; timings are
// uniform, not measured.
func Estimate(text string, audioDuration, wordsPerMinute float64) *types.Transcript {
	words := strings.Fields(text)
	if len(words) == 0 {
		return &types.Transcript{Language: "en"}
	}
	if audioDuration <= 0 {
		if wordsPerMinute <= 0 {
			wordsPerMinute = 150
		}
		audioDuration = float64(len(words)) / wordsPerMinute * 60
	}
	perWord := audioDuration / float64(len(words))

	transcript := &types.Transcript{Duration: audioDuration, Language: "en"}
	at := 0.0
	for _, word := range words {
		transcript.Words = append(transcript.Words, types.Word{
			Text: word, Start: at, End: at + perWord,
		})
		at += perWord
	}
	return transcript
}

// SaveTranscript writes the transcript JSON atomically and returns the
// final path.
func SaveTranscript(t *types.Transcript, path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadTranscript reads a transcript JSON produced by SaveTranscript.
func LoadTranscript(path string) (*types.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %v: %w", path, err, types.ErrArtifactCorrupt)
	}
	var t types.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("transcript %s: %v: %w", path, err, types.ErrArtifactCorrupt)
	}
	return &t, nil
}
