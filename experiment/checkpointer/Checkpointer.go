// Package checkpointer implements Checkpointers, which save the state
// of an agent to disk during an experiment
package checkpointer

import (
	"fmt"
	"io"

	"github.com/rs/xid"
	"github.com/samuelfneumann/goddpg/timestep"
)

// Saver is an object whose state can be written to an io.Writer
type Saver interface {
	Save(w io.Writer) error
}

// Checkpointer checkpoints a Saver based on the TimeSteps of an
// experiment
type Checkpointer interface {
	Checkpoint(timestep.TimeStep) error
}

// FilenameEnumerator returns a function which returns filenames with a
// counter suffix. The first call returns filename followed by start+1
// and extension, and each subsequent call increments the counter.
func FilenameEnumerator(start int, filename, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", filename, i, extension)
	}
}

// FileID returns a function which returns filenames with a unique,
// sortable identifier suffix
func FileID(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, xid.New(), extension)
	}
}
