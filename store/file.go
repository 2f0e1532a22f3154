package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"story-shorts-pipeline/types"
)

// FileStoryStore keeps one <id>.json per story in a directory.
type FileStoryStore struct {
	dir string
}

func NewFileStoryStore(dir string) (*FileStoryStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create story dir: %w", err)
	}
	return &FileStoryStore{dir: dir}, nil
}

func (s *FileStoryStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStoryStore) Save(story *types.Story) error {
	story.StageName = story.Stage.String()
	data, err := json.MarshalIndent(story, "", "  ")
	if err != nil {
		return err
	}
	// Write-then-rename so a crash mid-save never leaves a truncated story.
	tmp := s.path(story.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(story.ID))
}

func (s *FileStoryStore) Load(id string) (*types.Story, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var story types.Story
	if err := json.Unmarshal(data, &story); err != nil {
		return nil, fmt.Errorf("story %s: %w", id, err)
	}
	stage, err := types.ParseStage(story.StageName)
	if err != nil {
		return nil, fmt.Errorf("story %s: %w", id, err)
	}
	story.Stage = stage
	return &story, nil
}

func (s *FileStoryStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// FileClipLibrary keeps downloaded clips next to an index.json describing
// them. The mutex serializes index rewrites from concurrent runs.
type FileClipLibrary struct {
	mu    sync.Mutex
	dir   string
	index string
}

func NewFileClipLibrary(dir string) (*FileClipLibrary, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create clip dir: %w", err)
	}
	return &FileClipLibrary{dir: dir, index: filepath.Join(dir, "index.json")}, nil
}

func (l *FileClipLibrary) load() ([]types.BackgroundClip, error) {
	data, err := os.ReadFile(l.index)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var clips []types.BackgroundClip
	if err := json.Unmarshal(data, &clips); err != nil {
		return nil, fmt.Errorf("clip index: %w", err)
	}
	return clips, nil
}

func (l *FileClipLibrary) save(clips []types.BackgroundClip) error {
	data, err := json.MarshalIndent(clips, "", "  ")
	if err != nil {
		return err
	}
	tmp := l.index + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, l.index)
}

func (l *FileClipLibrary) Clips() ([]types.BackgroundClip, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *FileClipLibrary) Add(clip types.BackgroundClip) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clips, err := l.load()
	if err != nil {
		return err
	}
	for _, c := range clips {
		if c.ID == clip.ID {
			return nil // already indexed
		}
	}
	return l.save(append(clips, clip))
}

func (l *FileClipLibrary) MarkUsed(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	clips, err := l.load()
	if err != nil {
		return err
	}
	for i := range clips {
		if clips[i].ID == id {
			clips[i].UsedCount++
			return l.save(clips)
		}
	}
	return fmt.Errorf("clip %s not in index", id)
}

// FileOutputStore moves finished videos into the output directory as
// <storyID>.mp4.
type FileOutputStore struct {
	dir string
}

func NewFileOutputStore(dir string) (*FileOutputStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileOutputStore{dir: dir}, nil
}

func (s *FileOutputStore) Put(storyID, srcPath string) (string, error) {
	dst := filepath.Join(s.dir, storyID+".mp4")
	if err := os.Rename(srcPath, dst); err == nil {
		return dst, nil
	}
	// Rename fails across filesystems; fall back to copy + rename.
	if err := copyFile(srcPath, dst+".tmp"); err != nil {
		return "", fmt.Errorf("store output: %w", err)
	}
	if err := os.Rename(dst+".tmp", dst); err != nil {
		return "", fmt.Errorf("store output: %w", err)
	}
	_ = os.Remove(srcPath)
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
