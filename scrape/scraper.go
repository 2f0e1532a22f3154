// Package scrape fetches candidate stories from Reddit and persists them
// at the scraped stage.
package scrape

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"story-shorts-pipeline/config"
	"story-shorts-pipeline/store"
	"story-shorts-pipeline/types"
)

// hookKeywords boost a story's ranking when present in the title or body.
var hookKeywords = []string{
	"never told anyone", "secret", "caught", "divorce", "revenge",
	"found out", "confession", "ruined", "betrayed", "wedding",
}

// Scraper pulls self posts from the configured subreddits.
type Scraper struct {
	cfg     *config.Config
	client  *reddit.Client
	stories store.StoryStore
}

func New(cfg *config.Config, stories store.StoryStore) (*Scraper, error) {
	client, err := reddit.NewReadonlyClient(reddit.WithUserAgent(cfg.Reddit.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}
	return &Scraper{cfg: cfg, client: client, stories: stories}, nil
}

// Run fetches top posts, filters and ranks them, and saves every new
// candidate at the scraped stage. Returns the saved stories, best first.
func (s *Scraper) Run(ctx context.Context) ([]*types.Story, error) {
	log.Println("[scrape] Fetching stories from Reddit...")

	known := make(map[string]bool)
	if ids, err := s.stories.List(); err == nil {
		for _, id := range ids {
			known[id] = true
		}
	}

	var candidates []*types.Story
	for _, sub := range s.cfg.Reddit.Subreddits {
		posts, _, err := s.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: s.cfg.Reddit.PostsPerSubreddit},
			Time:        s.cfg.Reddit.TimeFilter,
		})
		if err != nil {
			log.Printf("[scrape] r/%s warning: %v", sub, err)
			continue
		}
		for _, post := range posts {
			story := s.postToStory(post)
			if story == nil || known[story.ID] {
				continue
			}
			candidates = append(candidates, story)
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no usable stories found: %w", types.ErrCollaboratorUnavailable)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return rank(candidates[i]) > rank(candidates[j])
	})

	for _, story := range candidates {
		if err := s.stories.Save(story); err != nil {
			return nil, fmt.Errorf("save story %s: %w", story.ID, err)
		}
	}

	log.Printf("[scrape] ✅ Saved %d new stories", len(candidates))
	return candidates, nil
}

// postToStory filters and converts one post, or returns nil if unusable.
func (s *Scraper) postToStory(post *reddit.Post) *types.Story {
	if !post.IsSelfPost || post.NSFW || post.Locked {
		return nil
	}
	body := strings.TrimSpace(post.Body)
	if len(body) < s.cfg.Reddit.MinLength || len(body) > s.cfg.Reddit.MaxLength {
		return nil
	}
	if post.Score < s.cfg.Reddit.MinScore {
		return nil
	}

	story := &types.Story{
		ID:          post.ID,
		Subreddit:   post.SubredditName,
		Title:       strings.TrimSpace(post.Title),
		Author:      post.Author,
		Body:        body,
		Score:       post.Score,
		URL:         "https://www.reddit.com" + post.Permalink,
		NumComments: post.NumberOfComments,
		Stage:       types.StageScraped,
	}
	if post.Created != nil {
		story.CreatedUTC = post.Created.Time
	}
	return story
}

// rank orders candidates by score with a boost for hook keywords.
func rank(story *types.Story) int {
	score := story.Score + story.NumComments/10
	text := strings.ToLower(story.Title + " " + story.Body)
	for _, kw := range hookKeywords {
		if strings.Contains(text, kw) {
			score += 50
		}
	}
	return score
}
