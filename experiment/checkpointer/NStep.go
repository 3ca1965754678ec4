package checkpointer

import (
	"fmt"
	"os"

	"github.com/samuelfneumann/goddpg/timestep"
)

// nStep implements checkpointing every N total steps
type nStep struct {
	interval int
	steps    int
	object   Saver

	// filename returns the name of the file to save the next checkpoint
	// in, see FilenameEnumerator and FileID
	filename func() string
}

// NewNStep returns a Checkpointer that saves object every n calls to
// Checkpoint. The first call to Checkpoint is not saved, so that the
// nth call saves the object.
func NewNStep(n int, object Saver, filename func() string) (Checkpointer,
	error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: checkpoint interval must be "+
			"positive \n\twant(>0) \n\thave(%v)", n)
	}
	if object == nil || filename == nil {
		return nil, fmt.Errorf("newNStep: object and filename must be " +
			"non-nil")
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint counts the TimeStep and saves the tracked object if the
// checkpoint interval has been reached
func (n *nStep) Checkpoint(timestep.TimeStep) error {
	n.steps++
	if n.steps%n.interval != 0 {
		return nil
	}

	file, err := os.Create(n.filename())
	if err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	defer file.Close()

	if err := n.object.Save(file); err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	return file.Close()
}
