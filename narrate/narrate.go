// Package narrate synthesizes narration audio with edge-tts and measures
// its real duration with ffprobe.
package narrate

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

// Engine drives the edge-tts CLI.
type Engine struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Synthesize renders text to outPath and returns the measured audio
// duration in seconds. The file only appears at outPath on success; a
// failed attempt leaves nothing behind.
func (e *Engine) Synthesize(ctx context.Context, text, outPath string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("empty narration text: %w", types.ErrInvalidInput)
	}
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return 0, fmt.Errorf("edge-tts not installed: %w", types.ErrCollaboratorUnavailable)
	}

	log.Printf("[narrate] Synthesizing %d chars with voice %s...", len(text), e.cfg.Narration.Voice)

	tmpPath := outPath + ".tmp"
	defer os.Remove(tmpPath)

	// Retry transient TTS failures a few times before giving up.
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := exec.CommandContext(ctx,
			"edge-tts",
			"--voice", e.cfg.Narration.Voice,
			"--rate", e.cfg.Narration.SpeechRate,
			"--text", text,
			"--write-media", tmpPath,
		)
		cmd.Stderr = os.Stderr
		lastErr = cmd.Run()
		if lastErr == nil {
			break
		}
		log.Printf("[narrate] TTS attempt %d failed: %v — retrying...", attempt, lastErr)
		if err := waitBackoff(ctx, attempt); err != nil {
			return 0, err
		}
	}
	if lastErr != nil {
		return 0, fmt.Errorf("edge-tts: %v: %w", lastErr, types.ErrCollaboratorUnavailable)
	}

	dur, err := AudioDuration(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("probe narration: %v: %w", err, types.ErrArtifactCorrupt)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("narration has zero duration: %w", types.ErrArtifactCorrupt)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return 0, err
	}

	log.Printf("[narrate] ✅ %.1fs of audio → %s", dur, outPath)
	return dur, nil
}

// waitBackoff sleeps between retry attempts, returning early when the
// context is cancelled.
func waitBackoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * 2 * time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AudioDuration uses ffprobe to get the accurate duration in seconds.
func AudioDuration(path string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}
