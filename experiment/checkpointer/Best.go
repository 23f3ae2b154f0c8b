package checkpointer

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/samuelfneumann/expertgen/agent"
)

// Best checkpoints an agent whenever it achieves a score strictly
// greater than every score previously considered. Checkpoints are
// written to a temporary file and then renamed into place, so that the
// file at Path always holds a complete checkpoint.
//
// The best score is held in memory only and starts at -Inf, so that
// after resuming a run the first score considered always replaces the
// checkpoint on disk.
type Best struct {
	path       string
	best       float64
	companions []Companion
}

// NewBest returns a new Best checkpointer which saves checkpoints to
// the file at path. Each companion is saved and loaded together with
// the checkpointed agent.
func NewBest(path string, companions ...Companion) *Best {
	return &Best{
		path:       path,
		best:       math.Inf(-1),
		companions: companions,
	}
}

// Path returns the path to the checkpoint file
func (b *Best) Path() string {
	return b.path
}

// Score returns the best score considered so far
func (b *Best) Score() float64 {
	return b.best
}

// Consider checkpoints s if score is strictly greater than the best
// score so far. NaN scores are never checkpointed. The agent and every
// companion are first saved to temporary files, and no checkpoint file
// is replaced unless all of them saved. If saving fails, the best score
// and the files on disk are unchanged and the error is returned.
func (b *Best) Consider(score float64, s agent.Saver) (bool, error) {
	if !(score > b.best) {
		return false, nil
	}

	staged := make([]string, 0, len(b.companions)+1)
	discard := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	tmp, err := stage(b.path, s)
	if err != nil {
		return false, fmt.Errorf("consider: %w", err)
	}
	staged = append(staged, tmp)
	for _, c := range b.companions {
		tmp, err := stage(b.path+c.Suffix, c)
		if err != nil {
			discard()
			return false, fmt.Errorf("consider: companion %v: %w", c.Suffix,
				err)
		}
		staged = append(staged, tmp)
	}

	// The agent checkpoint is moved into place last
	for i := len(staged) - 1; i >= 0; i-- {
		path := b.path
		if i > 0 {
			path += b.companions[i-1].Suffix
		}
		if err := os.Rename(staged[i], path); err != nil {
			discard()
			return false, fmt.Errorf("consider: could not move checkpoint "+
				"into place: %w", err)
		}
		staged = staged[:i]
	}

	b.best = score
	return true, nil
}

// stage saves s to a temporary file next to path and returns its name
func stage(path string, s agent.Saver) (string, error) {
	tmp := tempName(path)
	if err := s.Save(tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("save: %w", err)
	}
	return tmp, nil
}

// Resume loads l and all companions from the checkpoint if it exists.
// A missing checkpoint returns false and no error. A checkpoint that
// exists but cannot be loaded is an error.
func (b *Best) Resume(l agent.Loader) (bool, error) {
	if _, err := os.Stat(b.path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("resume: %w", err)
	}

	if err := b.load(l); err != nil {
		return false, fmt.Errorf("resume: %w", err)
	}
	return true, nil
}

// Load loads l and all companions from the checkpoint. Unlike Resume,
// a missing checkpoint is an error.
func (b *Best) Load(l agent.Loader) error {
	if err := b.load(l); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

func (b *Best) load(l agent.Loader) error {
	if err := l.Load(b.path); err != nil {
		return err
	}
	for _, c := range b.companions {
		if err := c.Load(b.path + c.Suffix); err != nil {
			return fmt.Errorf("companion %v: %w", c.Suffix, err)
		}
	}
	return nil
}
