// Package store provides key-addressed persistence for stories, background
// clips and finished videos. The pipeline core only sees the interfaces;
// the file implementations keep everything as flat JSON plus media files.
package store

import (
	"story-shorts-pipeline/types"
)

// StoryStore persists stories keyed by their source post ID.
type StoryStore interface {
	Save(story *types.Story) error
	Load(id string) (*types.Story, error)
	List() ([]string, error)
}

// ClipLibrary exposes the shared background video pool. The pool itself is
// read-only during a run; MarkUsed only bumps the cross-run usage counter.
type ClipLibrary interface {
	Clips() ([]types.BackgroundClip, error)
	Add(clip types.BackgroundClip) error
	MarkUsed(id string) error
}

// OutputStore moves finished renders into their durable location, keyed by
// story ID. Put must be atomic: the destination either holds a complete
// video or nothing.
type OutputStore interface {
	Put(storyID, srcPath string) (string, error)
}
