package store

import (
	"fmt"
	"os"
	"sync"

	"story-shorts-pipeline/types"
)

// In-memory stores for tests and dry runs.

type MemStoryStore struct {
	mu      sync.Mutex
	stories map[string]types.Story
}

func NewMemStoryStore() *MemStoryStore {
	return &MemStoryStore{stories: make(map[string]types.Story)}
}

func (s *MemStoryStore) Save(story *types.Story) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	story.StageName = story.Stage.String()
	s.stories[story.ID] = *story
	return nil
}

func (s *MemStoryStore) Load(id string) (*types.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	story, ok := s.stories[id]
	if !ok {
		return nil, os.ErrNotExist
	}
	out := story
	return &out, nil
}

func (s *MemStoryStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.stories))
	for id := range s.stories {
		ids = append(ids, id)
	}
	return ids, nil
}

type MemClipLibrary struct {
	mu    sync.Mutex
	clips []types.BackgroundClip
}

func NewMemClipLibrary(clips ...types.BackgroundClip) *MemClipLibrary {
	return &MemClipLibrary{clips: clips}
}

func (l *MemClipLibrary) Clips() ([]types.BackgroundClip, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.BackgroundClip, len(l.clips))
	copy(out, l.clips)
	return out, nil
}

func (l *MemClipLibrary) Add(clip types.BackgroundClip) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clips = append(l.clips, clip)
	return nil
}

func (l *MemClipLibrary) MarkUsed(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.clips {
		if l.clips[i].ID == id {
			l.clips[i].UsedCount++
			return nil
		}
	}
	return fmt.Errorf("clip %s not in library", id)
}

type MemOutputStore struct {
	mu      sync.Mutex
	Outputs map[string]string
}

func NewMemOutputStore() *MemOutputStore {
	return &MemOutputStore{Outputs: make(map[string]string)}
}

func (s *MemOutputStore) Put(storyID, srcPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "mem://" + storyID + ".mp4"
	s.Outputs[storyID] = srcPath
	return ref, nil
}
