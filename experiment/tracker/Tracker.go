// Package tracker implements Trackers, which record data generated in
// an experiment and save it once the experiment has finished
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t timestep.TimeStep)
	Save() error
}

// LossTracker is implemented by Trackers that also record the
// training losses of an agent. step is the total number of environment
// steps taken when the loss was computed.
type LossTracker interface {
	TrackLoss(step int, loss float64)
}

// LoadData loads and returns the data saved by a Tracker that saves
// floating point data with gob
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v",
			err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}

	return data, nil
}

// save gob-encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("could not encode data: %v", err)
	}
	return file.Close()
}
