// Package checkpointer implements checkpointing of agents during an
// experiment
package checkpointer

import "github.com/samuelfneumann/expertgen/agent"

// Persistent is an object that can be saved to and loaded from a file
type Persistent interface {
	agent.Saver
	agent.Loader
}

// Checkpointer decides when agents are checkpointed and restores them
// from their checkpoints
type Checkpointer interface {
	// Consider checkpoints s if score is better than every score
	// previously considered, returning whether a checkpoint was written
	Consider(score float64, s agent.Saver) (bool, error)

	// Resume restores l from an existing checkpoint, returning whether
	// a checkpoint existed. A missing checkpoint is not an error.
	Resume(l agent.Loader) (bool, error)

	// Load restores l from the checkpoint, which must exist
	Load(l agent.Loader) error
}

// Companion is an object persisted together with each checkpoint, in
// a file whose name is the checkpoint's name followed by Suffix
type Companion struct {
	Suffix string
	Persistent
}
