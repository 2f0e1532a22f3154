package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"story-shorts-pipeline/captions"
	"story-shorts-pipeline/transcribe"
	"story-shorts-pipeline/types"
)

// Stage handlers. Each one is a pure function of (story, prior-stage
// artifacts, collaborator): it writes its artifact to a temporary location
// and only the returned reference is persisted, so a failed attempt never
// leaves a partial artifact behind.

func (o *Orchestrator) runSimplify(ctx context.Context, story *types.Story, _ Options) (string, error) {
	text, err := o.simplifier.Simplify(ctx, story.Body, o.cfg.Simplify.PromptTemplate)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("simplifier produced empty text: %w", types.ErrInvalidInput)
	}

	path := filepath.Join(o.cfg.Paths.Stories, story.ID+"_simplified.txt")
	if err := writeFileAtomic(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

func (o *Orchestrator) runNarrate(ctx context.Context, story *types.Story, _ Options) (string, error) {
	text, err := o.loadSimplified(story)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(o.cfg.Paths.Audio, 0755); err != nil {
		return "", err
	}
	outPath := filepath.Join(o.cfg.Paths.Audio, story.ID+".mp3")

	dur, err := o.synthesizer.Synthesize(ctx, text, outPath)
	if err != nil {
		return "", err
	}
	story.AudioDurationSec = dur
	return outPath, nil
}

func (o *Orchestrator) runTranscribe(ctx context.Context, story *types.Story, _ Options) (string, error) {
	audioPath := story.Artifact(types.StageNarrated)
	if audioPath == "" {
		return "", fmt.Errorf("no narration artifact for %s: %w", story.ID, types.ErrArtifactCorrupt)
	}

	transcript, err := o.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if errors.Is(err, types.ErrCollaboratorUnavailable) && o.cfg.Transcription.FallbackEstimate {
			text, loadErr := o.loadSimplified(story)
			if loadErr != nil {
				return "", loadErr
			}
			log.Printf("[pipeline] %s: transcriber unavailable, estimating word timings", story.ID)
			transcript = transcribe.Estimate(text, story.AudioDurationSec, o.cfg.Transcription.WordsPerMinute)
		} else {
			return "", err
		}
	}
	if len(transcript.Words) == 0 {
		return "", fmt.Errorf("transcript for %s has no words: %w", story.ID, types.ErrArtifactCorrupt)
	}

	jsonPath := filepath.Join(o.cfg.Paths.Transcripts, story.ID+".json")
	if err := transcribe.SaveTranscript(transcript, jsonPath); err != nil {
		return "", err
	}

	// SRT export next to the JSON, for inspection and external tooling.
	windows := captions.Chunk(transcript.Words, o.cfg.Captions.MaxWordsPerWindow, o.cfg.Captions.MaxWindowDurationSec)
	srtPath := filepath.Join(o.cfg.Paths.Transcripts, story.ID+".srt")
	if err := writeFileAtomic(srtPath, []byte(captions.SRT(windows))); err != nil {
		log.Printf("[pipeline] Warning: could not save SRT for %s: %v", story.ID, err)
	}

	return jsonPath, nil
}

func (o *Orchestrator) runAssemble(ctx context.Context, story *types.Story, opts Options) (string, error) {
	transcript, err := transcribe.LoadTranscript(story.Artifact(types.StageTranscribed))
	if err != nil {
		return "", err
	}
	if len(transcript.Words) == 0 {
		return "", fmt.Errorf("transcript for %s has no words: %w", story.ID, types.ErrArtifactCorrupt)
	}

	target := story.AudioDurationSec
	if target <= 0 {
		target = transcript.Duration
	}
	if target <= 0 {
		return "", fmt.Errorf("no usable duration for %s: %w", story.ID, types.ErrArtifactCorrupt)
	}

	maxWords, maxDur := o.cfg.Captions.MaxWordsPerWindow, o.cfg.Captions.MaxWindowDurationSec
	if opts.Quick {
		maxWords, maxDur = o.cfg.Captions.QuickWordsPerWindow, o.cfg.Captions.QuickWindowDurationSec
	}
	windows := captions.Chunk(transcript.Words, maxWords, maxDur)

	pool, err := o.library.Clips()
	if err != nil {
		return "", fmt.Errorf("read clip library: %w", err)
	}
	selection, err := o.selector.Select(target, pool)
	if err != nil {
		return "", err
	}

	plan := &types.AssemblyPlan{
		StoryID:          story.ID,
		AudioPath:        story.Artifact(types.StageNarrated),
		AudioDurationSec: target,
		Background:       selection,
		Windows:          windows,
		Width:            o.cfg.Video.Width,
		Height:           o.cfg.Video.Height,
		FPS:              o.cfg.Video.FPS,
		Codec:            o.cfg.Video.Codec,
		AudioCodec:       o.cfg.Video.AudioCodec,
		Bitrate:          o.cfg.Video.Bitrate,
		Quick:            opts.Quick,
	}

	rendered, err := o.assembler.Assemble(ctx, plan)
	if err != nil {
		return "", err
	}

	outRef, err := o.outputs.Put(story.ID, rendered)
	if err != nil {
		return "", fmt.Errorf("store output: %w", err)
	}

	seen := make(map[string]bool)
	for _, seg := range selection.Segments {
		if !seen[seg.ClipID] {
			seen[seg.ClipID] = true
			if err := o.library.MarkUsed(seg.ClipID); err != nil {
				log.Printf("[pipeline] Warning: could not bump usage for clip %s: %v", seg.ClipID, err)
			}
		}
	}

	return outRef, nil
}

// loadSimplified reads the simplified-text artifact, classifying missing
// or empty files per the failure taxonomy.
func (o *Orchestrator) loadSimplified(story *types.Story) (string, error) {
	path := story.Artifact(types.StageSimplified)
	if path == "" {
		return "", fmt.Errorf("no simplified artifact for %s: %w", story.ID, types.ErrArtifactCorrupt)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read simplified text: %v: %w", err, types.ErrArtifactCorrupt)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("simplified text is empty: %w", types.ErrInvalidInput)
	}
	return text, nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
