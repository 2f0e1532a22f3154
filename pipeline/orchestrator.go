// Package pipeline drives stories through the ordered processing stages
// with per-story exclusivity and resumable, idempotent state.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"story-shorts-pipeline/clips"
	"story-shorts-pipeline/config"
	"story-shorts-pipeline/store"
	"story-shorts-pipeline/types"
)

// Collaborator contracts. The orchestrator only depends on these narrow
// interfaces; concrete implementations live in their own packages.
type TextSimplifier interface {
	Simplify(ctx context.Context, rawText, promptTemplate string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) (durationSec float64, err error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*types.Transcript, error)
}

type Assembler interface {
	Assemble(ctx context.Context, plan *types.AssemblyPlan) (string, error)
}

// Options tune one Advance call. Quick selects the cheaper caption
// configuration; Force re-runs already completed stages.
type Options struct {
	Quick bool
	Force bool
}

// Result reports where a story ended up after an Advance call.
type Result struct {
	Story  *types.Story
	Output string // output reference, set once the story is assembled
}

// Orchestrator owns the stage state machine for all stories in a run.
type Orchestrator struct {
	cfg         *config.Config
	stories     store.StoryStore
	library     store.ClipLibrary
	outputs     store.OutputStore
	simplifier  TextSimplifier
	synthesizer SpeechSynthesizer
	transcriber Transcriber
	assembler   Assembler
	selector    *clips.Selector
	locks       *lockArena
	runID       string
}

// Deps bundles the orchestrator's collaborators and stores.
type Deps struct {
	Stories     store.StoryStore
	Library     store.ClipLibrary
	Outputs     store.OutputStore
	Simplifier  TextSimplifier
	Synthesizer SpeechSynthesizer
	Transcriber Transcriber
	Assembler   Assembler
}

func New(cfg *config.Config, runID string, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		stories:     deps.Stories,
		library:     deps.Library,
		outputs:     deps.Outputs,
		simplifier:  deps.Simplifier,
		synthesizer: deps.Synthesizer,
		transcriber: deps.Transcriber,
		assembler:   deps.Assembler,
		selector:    clips.NewSelector(clips.NewHistory()),
		locks:       newLockArena(),
		runID:       runID,
	}
}

// transition maps a completed stage to the next stage and the handler that
// produces it. Stages missing from the table (the final one) have nowhere
// to go, so out-of-order requests fail here rather than in the handlers.
type transition struct {
	next    types.Stage
	handler func(ctx context.Context, story *types.Story, opts Options) (string, error)
}

func (o *Orchestrator) transitions() map[types.Stage]transition {
	return map[types.Stage]transition{
		types.StageScraped:     {types.StageSimplified, o.runSimplify},
		types.StageSimplified:  {types.StageNarrated, o.runNarrate},
		types.StageNarrated:    {types.StageTranscribed, o.runTranscribe},
		types.StageTranscribed: {types.StageAssembled, o.runAssemble},
	}
}

// Advance drives the story from its current stage to target, running each
// intermediate handler exactly once. A story already at or past target is
// a no-op unless opts.Force, which restarts from the beginning. At most
// one Advance runs per story ID; concurrent callers get ErrBusy.
//
// On a stage failure the story keeps the last successfully completed
// stage, the failed stage's artifact is discarded, and the failure kind
// and message are recorded on the story before the error is returned.
func (o *Orchestrator) Advance(ctx context.Context, storyID string, target types.Stage, opts Options) (*Result, error) {
	if target < types.StageScraped || target > types.StageAssembled {
		return nil, fmt.Errorf("target %v: %w", target, types.ErrInvalidInput)
	}

	if !o.locks.tryAcquire(storyID) {
		return nil, fmt.Errorf("advance already in flight for %s: %w", storyID, types.ErrBusy)
	}
	defer o.locks.release(storyID)

	story, err := o.stories.Load(storyID)
	if err != nil {
		return nil, fmt.Errorf("load story %s: %v: %w", storyID, err, types.ErrInvalidInput)
	}

	if story.Stage >= target && !opts.Force {
		log.Printf("[pipeline] %s already at %v (target %v) — nothing to do", storyID, story.Stage, target)
		return o.result(story), nil
	}
	if opts.Force {
		log.Printf("[pipeline] %s: forced re-run from %v", storyID, types.StageScraped)
		story.Stage = types.StageScraped
	}

	table := o.transitions()
	for story.Stage < target {
		tr, ok := table[story.Stage]
		if !ok {
			return nil, fmt.Errorf("no transition from %v: %w", story.Stage, types.ErrInvalidInput)
		}

		log.Printf("[pipeline] %s: %v → %v", storyID, story.Stage, tr.next)
		artifact, err := tr.handler(ctx, story, opts)
		if err != nil {
			story.ErrorKind = types.Kind(err)
			story.ErrorMessage = err.Error()
			if saveErr := o.stories.Save(story); saveErr != nil {
				log.Printf("[pipeline] Warning: could not record failure on %s: %v", storyID, saveErr)
			}
			return nil, fmt.Errorf("stage %v: %w", tr.next, err)
		}

		story.SetArtifact(tr.next, artifact)
		story.Stage = tr.next
		story.ErrorKind = ""
		story.ErrorMessage = ""
		if err := o.stories.Save(story); err != nil {
			return nil, fmt.Errorf("persist story %s after %v: %w", storyID, tr.next, err)
		}
	}

	log.Printf("[pipeline] ✅ %s at %v", storyID, story.Stage)
	return o.result(story), nil
}

func (o *Orchestrator) result(story *types.Story) *Result {
	return &Result{Story: story, Output: story.Artifact(types.StageAssembled)}
}
