// Package assemble composes narration audio, background segments and
// caption overlays into the final vertical video with ffmpeg.
package assemble

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"story-shorts-pipeline/captions"
	"story-shorts-pipeline/config"
	"story-shorts-pipeline/types"
)

// Assembler renders an AssemblyPlan to one physical output file.
type Assembler struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Validate checks that the background footage covers the narration within
// the given tolerance. Divergence is surfaced, never papered over by
// stretching media.
func Validate(plan *types.AssemblyPlan, toleranceSec float64) error {
	total := plan.Background.TotalLength()
	if diff := math.Abs(total - plan.AudioDurationSec); diff > toleranceSec {
		return fmt.Errorf("audio %.2fs vs background %.2fs (diff %.2fs, tolerance %.2fs): %w",
			plan.AudioDurationSec, total, diff, toleranceSec, types.ErrDurationMismatch)
	}
	if len(plan.Background.Segments) == 0 {
		return fmt.Errorf("plan has no background segments: %w", types.ErrNoBackgroundAvailable)
	}
	return nil
}

// Assemble renders the plan and returns the path of the finished file.
// All intermediates live in a per-story cache dir; the output is written
// to a temporary name and renamed only once ffmpeg has finished, so a
// failed render leaves no partial output.
func (a *Assembler) Assemble(ctx context.Context, plan *types.AssemblyPlan) (string, error) {
	if err := Validate(plan, a.cfg.Video.DurationToleranceSec); err != nil {
		return "", err
	}

	workDir := filepath.Join(a.cfg.Paths.Cache, plan.StoryID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", err
	}

	log.Printf("[assemble] Story %s: %d segment(s), %d caption window(s), %.1fs",
		plan.StoryID, len(plan.Background.Segments), len(plan.Windows), plan.AudioDurationSec)

	background, err := a.buildBackground(ctx, plan, workDir)
	if err != nil {
		return "", fmt.Errorf("build background: %w", err)
	}

	captioned, err := a.burnCaptions(ctx, plan, background, workDir)
	if err != nil {
		return "", fmt.Errorf("burn captions: %w", err)
	}

	final, err := a.combine(ctx, plan, captioned, workDir)
	if err != nil {
		return "", fmt.Errorf("combine video+audio: %w", err)
	}

	log.Printf("[assemble] ✅ Rendered %s", final)
	return final, nil
}

// buildBackground trims each selected segment, normalizes it to the target
// vertical frame, and concatenates the pieces at the plan's cut points.
func (a *Assembler) buildBackground(ctx context.Context, plan *types.AssemblyPlan, workDir string) (string, error) {
	// Cover the target frame then center-crop, so any source aspect ratio
	// fills 9:16 without letterboxing.
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
		plan.Width, plan.Height, plan.Width, plan.Height)

	var segFiles []string
	for i, seg := range plan.Background.Segments {
		segFile := filepath.Join(workDir, fmt.Sprintf("bg_seg_%02d.mp4", i))
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
			"-ss", fmt.Sprintf("%.3f", seg.Offset),
			"-t", fmt.Sprintf("%.3f", seg.Length),
			"-i", seg.Path,
			"-vf", vf,
			"-r", fmt.Sprintf("%d", plan.FPS),
			"-c:v", plan.Codec,
			"-preset", "fast",
			"-crf", "22",
			"-pix_fmt", "yuv420p",
			"-an",
			segFile,
		)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("ffmpeg trim segment %d: %w", i, err)
		}
		segFiles = append(segFiles, segFile)
	}

	if len(segFiles) == 1 {
		return segFiles[0], nil
	}

	listFile := filepath.Join(workDir, "bg_concat.txt")
	var lines []string
	for _, f := range segFiles {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	outFile := filepath.Join(workDir, "background.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg concat segments: %w", err)
	}
	return outFile, nil
}

// burnCaptions writes the subtitle track and burns it into the background.
// Full mode uses per-word karaoke ASS; quick mode uses plain window SRT
// with styling pushed through force_style.
func (a *Assembler) burnCaptions(ctx context.Context, plan *types.AssemblyPlan, videoFile, workDir string) (string, error) {
	if len(plan.Windows) == 0 {
		return videoFile, nil
	}

	outFile := filepath.Join(workDir, "captioned.mp4")
	var filter string
	if plan.Quick {
		srtFile := filepath.Join(workDir, "captions.srt")
		if err := os.WriteFile(srtFile, []byte(captions.SRT(plan.Windows)), 0644); err != nil {
			return "", err
		}
		filter = fmt.Sprintf(
			"subtitles=%s:force_style='FontName=%s,FontSize=%d,Bold=1,PrimaryColour=%s,OutlineColour=%s,Outline=%.0f,Alignment=10,MarginV=%d'",
			escapeFilterPath(srtFile),
			a.cfg.Captions.Font,
			a.cfg.Captions.FontSize,
			assPrimary(a.cfg.Captions.Color),
			assPrimary(a.cfg.Captions.StrokeColor),
			a.cfg.Captions.StrokeWidth,
			a.cfg.Captions.MarginBottom,
		)
	} else {
		assFile := filepath.Join(workDir, "captions.ass")
		track := captions.ASS(plan.Windows, &a.cfg.Captions, plan.Width, plan.Height)
		if err := os.WriteFile(assFile, []byte(track), 0644); err != nil {
			return "", err
		}
		filter = "ass=" + escapeFilterPath(assFile)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-vf", filter,
		"-c:v", plan.Codec,
		"-preset", "fast",
		"-b:v", plan.Bitrate,
		"-an",
		outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg caption burn: %w", err)
	}
	return outFile, nil
}

// combine muxes the captioned video with the narration audio.
func (a *Assembler) combine(ctx context.Context, plan *types.AssemblyPlan, videoFile, workDir string) (string, error) {
	finalFile := filepath.Join(workDir, "final.mp4")
	tmpFile := filepath.Join(workDir, "final.tmp.mp4")

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", plan.AudioPath,
		"-c:v", "copy",
		"-c:a", plan.AudioCodec,
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		"-f", "mp4",
		tmpFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmpFile)
		return "", fmt.Errorf("ffmpeg mux: %w", err)
	}
	if err := os.Rename(tmpFile, finalFile); err != nil {
		return "", err
	}
	return finalFile, nil
}

var assPrimaries = map[string]string{
	"white": "&H00FFFFFF", "yellow": "&H0000FFFF", "black": "&H00000000",
}

func assPrimary(name string) string {
	if c, ok := assPrimaries[strings.ToLower(name)]; ok {
		return c
	}
	return "&H00FFFFFF"
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter string.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
