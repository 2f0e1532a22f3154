package types

import "errors"

// Failure taxonomy for the pipeline. Stage handlers wrap one of these
// sentinels with fmt.Errorf("...: %w", ...) so callers can classify with
// errors.Is while keeping the full message.
var (
	// ErrCollaboratorUnavailable: an external service could not be
	// reached. Retrying the same advance call later may succeed.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrInvalidInput: the input cannot produce a valid artifact (empty
	// text, unsupported voice). Not retryable without changing the input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrArtifactCorrupt: a prior stage's artifact is unreadable. Requires
	// regenerating the producing stage, not the whole pipeline.
	ErrArtifactCorrupt = errors.New("artifact corrupt")

	// ErrNoBackgroundAvailable: the clip library pool is empty.
	ErrNoBackgroundAvailable = errors.New("no background available")

	// ErrDurationMismatch: audio and background lengths diverge beyond
	// tolerance. Indicates an upstream synchronization bug; never
	// auto-corrected by stretching media.
	ErrDurationMismatch = errors.New("duration mismatch")

	// ErrBusy: another advance is already in flight for the same story.
	ErrBusy = errors.New("story busy")
)

// Kind returns the stable name of the failure class for recording on a
// Story, or "internal" when the error is outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrCollaboratorUnavailable):
		return "collaborator_unavailable"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrArtifactCorrupt):
		return "artifact_corrupt"
	case errors.Is(err, ErrNoBackgroundAvailable):
		return "no_background_available"
	case errors.Is(err, ErrDurationMismatch):
		return "duration_mismatch"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}

// Retryable reports whether retrying the same advance call can succeed
// without changing inputs or regenerating artifacts.
func Retryable(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable) || errors.Is(err, ErrBusy)
}
