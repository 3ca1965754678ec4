package checkpointer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	saves int
}

func (c *counter) Save(w io.Writer) error {
	c.saves++
	_, err := fmt.Fprintf(w, "save %d", c.saves)
	return err
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(0, "weights", ".bin")
	assert.Equal(t, "weights1.bin", next())
	assert.Equal(t, "weights2.bin", next())
}

func TestFileID(t *testing.T) {
	next := FileID("weights", ".bin")
	first, second := next(), next()

	assert.True(t, strings.HasPrefix(first, "weights-"))
	assert.True(t, strings.HasSuffix(first, ".bin"))
	assert.NotEqual(t, first, second)
}

func TestNStep(t *testing.T) {
	dir := t.TempDir()
	c := &counter{}
	n, err := NewNStep(3, c, FilenameEnumerator(0,
		filepath.Join(dir, "ckpt"), ".bin"))
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		require.NoError(t, n.Checkpoint(timestep.TimeStep{Number: i}))
	}
	assert.Equal(t, 2, c.saves)

	data, err := os.ReadFile(filepath.Join(dir, "ckpt2.bin"))
	require.NoError(t, err)
	assert.Equal(t, "save 2", string(data))

	_, err = os.Stat(filepath.Join(dir, "ckpt3.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewNStepInvalid(t *testing.T) {
	_, err := NewNStep(0, &counter{}, FileID("x", ".bin"))
	assert.Error(t, err)

	_, err = NewNStep(1, nil, FileID("x", ".bin"))
	assert.Error(t, err)
}
