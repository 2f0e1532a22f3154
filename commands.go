package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"story-shorts-pipeline/assemble"
	"story-shorts-pipeline/config"
	"story-shorts-pipeline/library"
	"story-shorts-pipeline/narrate"
	"story-shorts-pipeline/pipeline"
	"story-shorts-pipeline/scrape"
	"story-shorts-pipeline/simplify"
	"story-shorts-pipeline/store"
	"story-shorts-pipeline/transcribe"
	"story-shorts-pipeline/types"
)

var (
	flagConfig string
	flagQuick  bool
	flagForce  bool
	flagStage  string
	flagCount  int
	flagQuery  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "Path to config.yaml")

	advanceCmd.Flags().BoolVar(&flagQuick, "quick", false, "Cheaper caption chunking (fewer, longer windows)")
	advanceCmd.Flags().BoolVar(&flagForce, "force", false, "Re-run completed stages")
	advanceCmd.Flags().StringVar(&flagStage, "to", "assembled", "Target stage (simplified|narrated|transcribed|assembled)")

	fetchClipsCmd.Flags().IntVar(&flagCount, "count", 3, "Number of clips to download")
	fetchClipsCmd.Flags().StringVar(&flagQuery, "query", "", "Custom search query")

	rootCmd.AddCommand(advanceCmd, scrapeCmd, fetchClipsCmd, listCmd, checkCmd)
}

// loadConfig falls back to built-in defaults when no config.yaml exists,
// matching how the rest of the pipeline can run from a clean checkout.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(flagConfig); os.IsNotExist(err) {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(flagConfig)
}

func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
	stories, err := store.NewFileStoryStore(cfg.Paths.Stories)
	if err != nil {
		return nil, err
	}
	clipLib, err := store.NewFileClipLibrary(cfg.Paths.Clips)
	if err != nil {
		return nil, err
	}
	outputs, err := store.NewFileOutputStore(cfg.Paths.Output)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	log.Printf("[main] Run ID: %s", runID)

	return pipeline.New(cfg, runID, pipeline.Deps{
		Stories:     stories,
		Library:     clipLib,
		Outputs:     outputs,
		Simplifier:  simplify.New(cfg),
		Synthesizer: narrate.New(cfg),
		Transcriber: transcribe.New(cfg, cfg.Paths.Transcripts),
		Assembler:   assemble.New(cfg),
	}), nil
}

var advanceCmd = &cobra.Command{
	Use:   "advance <story-id>",
	Short: "Drive a story through the pipeline stages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		target, err := types.ParseStage(flagStage)
		if err != nil {
			return err
		}
		orch, err := buildOrchestrator(cfg)
		if err != nil {
			return err
		}

		result, err := orch.Advance(context.Background(), args[0], target, pipeline.Options{
			Quick: flagQuick,
			Force: flagForce,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", types.Kind(err), err)
		}
		if result.Output != "" {
			fmt.Printf("Output: %s\n", result.Output)
		} else {
			fmt.Printf("Story %s at stage %v\n", result.Story.ID, result.Story.Stage)
		}
		return nil
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch new stories from Reddit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stories, err := store.NewFileStoryStore(cfg.Paths.Stories)
		if err != nil {
			return err
		}
		scraper, err := scrape.New(cfg, stories)
		if err != nil {
			return err
		}
		found, err := scraper.Run(context.Background())
		if err != nil {
			return err
		}
		for _, s := range found {
			fmt.Printf("%s  r/%-18s %6d  %s\n", s.ID, s.Subreddit, s.Score, truncate(s.Title, 50))
		}
		return nil
	},
}

var fetchClipsCmd = &cobra.Command{
	Use:   "fetch-clips",
	Short: "Download background clips into the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		clipLib, err := store.NewFileClipLibrary(cfg.Paths.Clips)
		if err != nil {
			return err
		}
		added, err := library.New(cfg, clipLib).Fetch(context.Background(), flagCount, flagQuery)
		if err != nil {
			return err
		}
		for _, c := range added {
			fmt.Printf("%s  %5.0fs  %s\n", c.ID, c.DurationSec, truncate(c.Title, 50))
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored stories and their stages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		stories, err := store.NewFileStoryStore(cfg.Paths.Stories)
		if err != nil {
			return err
		}
		ids, err := stories.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			story, err := stories.Load(id)
			if err != nil {
				fmt.Printf("%s  (unreadable: %v)\n", id, err)
				continue
			}
			status := story.Stage.String()
			if story.ErrorKind != "" {
				status += " [" + story.ErrorKind + "]"
			}
			fmt.Printf("%s  %-28s %s\n", story.ID, status, truncate(story.Title, 50))
		}
		return nil
	},
}

// externalBinaries are the tools the stage handlers shell out to.
var externalBinaries = []string{"ffmpeg", "ffprobe", "edge-tts", "whisper", "yt-dlp"}

// missingDeps reports which required external binaries are not on PATH.
func missingDeps() []string {
	var missing []string
	for _, bin := range externalBinaries {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	return missing
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify external tools and credentials are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		missing := make(map[string]bool)
		for _, bin := range missingDeps() {
			missing[bin] = true
		}
		for _, bin := range externalBinaries {
			if missing[bin] {
				fmt.Printf("❌ %-10s not found on PATH\n", bin)
			} else {
				fmt.Printf("✅ %-10s\n", bin)
			}
		}

		for _, env := range []string{"GROQ_API_KEY", "YOUTUBE_API_KEY", "YOUTUBE_REFRESH_TOKEN"} {
			if os.Getenv(env) != "" {
				fmt.Printf("✅ %s set\n", env)
			} else {
				fmt.Printf("⚠️  %s not set\n", env)
			}
		}

		if len(missing) > 0 {
			return fmt.Errorf("%d required tool(s) missing", len(missing))
		}
		return nil
	},
}

// truncate shortens s to at most n display characters. It counts runes,
// not bytes, so multibyte titles are never cut mid-character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
