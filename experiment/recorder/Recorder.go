// Package recorder implements a Tracker that records the episodes and
// training losses of experiment runs in a SQLite database
package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/samuelfneumann/goddpg/timestep"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// Episode is a single finished episode of a run
type Episode struct {
	Episode int
	Return  float64
	Length  int
}

// Loss is a single training loss of a run
type Loss struct {
	Step int
	Loss float64
}

// Recorder records the episodes and training losses of a single run
// of an experiment. Each Recorder creates a new run, identified by a
// UUID, in the database. Records are buffered and written to the
// database in a single transaction by Save.
type Recorder struct {
	db    *sql.DB
	path  string
	runID string

	episodeStatement *sql.Stmt
	lossStatement    *sql.Stmt

	episode       int
	currentReturn float64

	episodesToWrite []Episode
	lossesToWrite   []Loss
	batchSize       int
}

// New opens the SQLite database at path, creating it if needed, and
// starts a new run described by description. If path is empty, a new
// database with a unique name is created in the working directory.
func New(path, description string) (*Recorder, error) {
	if path == "" {
		path = "ddpg_run_" + xid.New().String() + ".sqlite3"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("new: could not open database: %v", err)
	}

	r := &Recorder{
		db:        db,
		path:      path,
		runID:     uuid.NewString(),
		batchSize: 10000,
	}

	if err := r.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("new: %v", err)
	}
	if err := r.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("new: %v", err)
	}

	_, err = db.Exec(`INSERT INTO runs (run_id, started, description)
		VALUES (?, ?, ?)`, r.runID, time.Now().UTC().Format(time.RFC3339),
		description)
	if err != nil {
		r.closeStatements()
		db.Close()
		return nil, fmt.Errorf("new: could not create run: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Run %v is recorded in database: %v\n", r.runID,
		path)
	return r, nil
}

func (r *Recorder) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs
		(
			run_id      VARCHAR(36) NOT NULL PRIMARY KEY,
			started     VARCHAR(64) NOT NULL,
			description TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS episodes
		(
			run_id  VARCHAR(36) NOT NULL,
			episode INTEGER     NOT NULL,
			ep_return FLOAT     NOT NULL,
			length  INTEGER     NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS episodes_run_id_index
			ON episodes (run_id);`,
		`CREATE TABLE IF NOT EXISTS losses
		(
			run_id VARCHAR(36) NOT NULL,
			step   INTEGER     NOT NULL,
			loss   FLOAT       NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS losses_run_id_index
			ON losses (run_id);`,
	}

	for _, s := range statements {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("createTables: %v", err)
		}
	}
	return nil
}

// prepareStatements prepares the insert statements of the Recorder. On
// error, no statement is left open.
func (r *Recorder) prepareStatements() error {
	var err error
	r.episodeStatement, err = r.db.Prepare(`INSERT INTO episodes
		(run_id, episode, ep_return, length) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepareStatements: %v", err)
	}

	r.lossStatement, err = r.db.Prepare(`INSERT INTO losses
		(run_id, step, loss) VALUES (?, ?, ?)`)
	if err != nil {
		r.closeStatements()
		return fmt.Errorf("prepareStatements: %v", err)
	}
	return nil
}

// closeStatements closes and clears any prepared statement
func (r *Recorder) closeStatements() {
	if r.episodeStatement != nil {
		r.episodeStatement.Close()
		r.episodeStatement = nil
	}
	if r.lossStatement != nil {
		r.lossStatement.Close()
		r.lossStatement = nil
	}
}

// RunID returns the identifier of the run being recorded
func (r *Recorder) RunID() string {
	return r.runID
}

// Path returns the path of the database
func (r *Recorder) Path() string {
	return r.path
}

// Track accumulates the return of the current episode and buffers the
// episode once its last TimeStep is tracked
func (r *Recorder) Track(step timestep.TimeStep) {
	r.currentReturn += step.Reward
	if !step.Last() {
		return
	}

	r.episodesToWrite = append(r.episodesToWrite, Episode{
		Episode: r.episode,
		Return:  r.currentReturn,
		Length:  step.Number,
	})
	r.episode++
	r.currentReturn = 0

	if len(r.episodesToWrite) >= r.batchSize {
		r.flushOrWarn()
	}
}

// TrackLoss buffers a training loss computed after step total
// environment steps
func (r *Recorder) TrackLoss(step int, loss float64) {
	r.lossesToWrite = append(r.lossesToWrite, Loss{Step: step, Loss: loss})

	if len(r.lossesToWrite) >= r.batchSize {
		r.flushOrWarn()
	}
}

func (r *Recorder) flushOrWarn() {
	if err := r.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write records: %v\n",
			err)
	}
}

// Save writes all buffered records to the database
func (r *Recorder) Save() error {
	if len(r.episodesToWrite) == 0 && len(r.lossesToWrite) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}

	episodes := tx.Stmt(r.episodeStatement)
	for _, e := range r.episodesToWrite {
		_, err := episodes.Exec(r.runID, e.Episode, e.Return, e.Length)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save: could not insert episode %v: %v",
				e.Episode, err)
		}
	}

	losses := tx.Stmt(r.lossStatement)
	for _, l := range r.lossesToWrite {
		if _, err := losses.Exec(r.runID, l.Step, l.Loss); err != nil {
			tx.Rollback()
			return fmt.Errorf("save: could not insert loss: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: %v", err)
	}

	r.episodesToWrite = nil
	r.lossesToWrite = nil
	return nil
}

// Episodes returns the saved episodes of the run, in order
func (r *Recorder) Episodes() ([]Episode, error) {
	rows, err := r.db.Query(`SELECT episode, ep_return, length FROM episodes
		WHERE run_id = ? ORDER BY episode`, r.runID)
	if err != nil {
		return nil, fmt.Errorf("episodes: %v", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.Episode, &e.Return, &e.Length); err != nil {
			return nil, fmt.Errorf("episodes: %v", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// Losses returns the saved training losses of the run, in order
func (r *Recorder) Losses() ([]Loss, error) {
	rows, err := r.db.Query(`SELECT step, loss FROM losses
		WHERE run_id = ? ORDER BY rowid`, r.runID)
	if err != nil {
		return nil, fmt.Errorf("losses: %v", err)
	}
	defer rows.Close()

	var losses []Loss
	for rows.Next() {
		var l Loss
		if err := rows.Scan(&l.Step, &l.Loss); err != nil {
			return nil, fmt.Errorf("losses: %v", err)
		}
		losses = append(losses, l)
	}
	return losses, rows.Err()
}

// Close saves all buffered records and closes the database
func (r *Recorder) Close() error {
	saveErr := r.Save()

	r.closeStatements()
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}

	if saveErr != nil {
		return fmt.Errorf("close: %v", saveErr)
	}
	return nil
}
