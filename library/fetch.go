// Package library grows the background clip pool: it searches YouTube for
// Creative Commons gameplay footage, downloads it with yt-dlp and records
// each clip in the library index.
package library

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/store"
	"story-shorts-pipeline/types"
)

// Fetcher downloads background clips into the library.
type Fetcher struct {
	cfg   *config.Config
	clips store.ClipLibrary
}

func New(cfg *config.Config, clips store.ClipLibrary) *Fetcher {
	return &Fetcher{cfg: cfg, clips: clips}
}

// Fetch searches for Creative Commons footage and downloads up to count
// new clips. A custom query overrides the configured rotation.
func (f *Fetcher) Fetch(ctx context.Context, count int, query string) ([]types.BackgroundClip, error) {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return nil, fmt.Errorf("yt-dlp not installed: %w", types.ErrCollaboratorUnavailable)
	}

	svc, err := f.newService(ctx)
	if err != nil {
		return nil, err
	}

	if query == "" {
		query = f.cfg.Library.SearchQueries[rand.Intn(len(f.cfg.Library.SearchQueries))]
	}
	log.Printf("[library] Searching YouTube: %q", query)

	resp, err := svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		VideoLicense("creativeCommon").
		VideoDuration("medium").
		MaxResults(int64(f.cfg.Library.MaxResults)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %v: %w", err, types.ErrCollaboratorUnavailable)
	}

	existing := make(map[string]bool)
	if known, err := f.clips.Clips(); err == nil {
		for _, c := range known {
			existing[c.ID] = true
		}
	}

	var added []types.BackgroundClip
	for _, item := range resp.Items {
		if len(added) >= count {
			break
		}
		videoID := item.Id.VideoId
		if videoID == "" || existing[videoID] {
			continue
		}
		clip, err := f.download(ctx, videoID, item.Snippet.Title)
		if err != nil {
			log.Printf("[library] Skipping %s: %v", videoID, err)
			continue
		}
		if err := f.clips.Add(*clip); err != nil {
			return added, fmt.Errorf("index clip %s: %w", videoID, err)
		}
		added = append(added, *clip)
	}

	log.Printf("[library] ✅ Added %d clip(s)", len(added))
	return added, nil
}

// newService authenticates against the YouTube Data API. An OAuth refresh
// token takes precedence; an API key is enough for read-only search.
func (f *Fetcher) newService(ctx context.Context) (*youtube.Service, error) {
	if refresh := os.Getenv("YOUTUBE_REFRESH_TOKEN"); refresh != "" {
		conf := &oauth2.Config{
			ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
			ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
		}
		token := &oauth2.Token{RefreshToken: refresh}
		client := conf.Client(ctx, token)
		svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("youtube service: %v: %w", err, types.ErrCollaboratorUnavailable)
		}
		return svc, nil
	}

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("no YOUTUBE_API_KEY or YOUTUBE_REFRESH_TOKEN set: %w", types.ErrCollaboratorUnavailable)
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey), option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %v: %w", err, types.ErrCollaboratorUnavailable)
	}
	return svc, nil
}

// download pulls one video with yt-dlp, probes it and returns the clip
// entry, rejecting footage outside the configured duration band.
func (f *Fetcher) download(ctx context.Context, videoID, title string) (*types.BackgroundClip, error) {
	outPath := filepath.Join(f.cfg.Paths.Clips, videoID+".mp4")
	url := "https://www.youtube.com/watch?v=" + videoID

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--no-playlist",
		"-f", "bv*[height<=1080][ext=mp4]/b[ext=mp4]",
		"-o", outPath,
		url,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}

	dur, width, height, err := probeVideo(outPath)
	if err != nil {
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("probe: %w", err)
	}
	if dur < float64(f.cfg.Library.MinDurationSec) || dur > float64(f.cfg.Library.MaxDurationSec) {
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("duration %.0fs outside [%d, %d]", dur, f.cfg.Library.MinDurationSec, f.cfg.Library.MaxDurationSec)
	}

	return &types.BackgroundClip{
		ID:          videoID,
		Title:       title,
		Path:        outPath,
		SourceURL:   url,
		DurationSec: dur,
		Width:       width,
		Height:      height,
	}, nil
}

// probeVideo reads duration and frame size with ffprobe.
func probeVideo(path string) (dur float64, width, height int, err error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return 0, 0, 0, err
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		switch {
		case strings.HasPrefix(line, "width="):
			fmt.Sscanf(line, "width=%d", &width)
		case strings.HasPrefix(line, "height="):
			fmt.Sscanf(line, "height=%d", &height)
		case strings.HasPrefix(line, "duration="):
			fmt.Sscanf(line, "duration=%f", &dur)
		}
	}
	if dur <= 0 {
		return 0, 0, 0, fmt.Errorf("no duration in ffprobe output")
	}
	return dur, width, height, nil
}
