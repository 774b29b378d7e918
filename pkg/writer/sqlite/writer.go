// Package sqlite provides SQLite database writing for similarity runs
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/TwinSpace/pkg/pipeline"
	"github.com/ChrisMcGann/TwinSpace/pkg/precursor"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02T15:04:05Z07:00"

// Run describes the parameters of one grouping and scoring run.
type Run struct {
	ID                 uuid.UUID
	Created            time.Time
	Library            string
	MassTolerance      float64
	RetentionTolerance float64
	UsePPM             bool
	FragmentAbsolute   float64
	FragmentPPM        float64
	WeightMZ           float64
	WeightIntensity    float64
	PairCount          int
}

// NewRun returns a Run with a fresh ID and the current time.
func NewRun() Run {
	return Run{ID: uuid.New(), Created: time.Now().UTC()}
}

// Writer handles writing run results to SQLite database files
type Writer struct {
	db            *sql.DB
	tx            *sql.Tx
	outputPath    string
	runID         string
	precursorStmt *sql.Stmt
	resultStmt    *sql.Stmt
	results       int
}

// NewWriter creates the schema, records run and opens a transaction for
// its precursors and results.
func NewWriter(outputPath string, run Run) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      run.ID.String(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.insertRun(run); err != nil {
		db.Close()
		return nil, err
	}

	w.tx, err = db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		w.tx.Rollback()
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Library TEXT,
		MassTolerance DOUBLE,
		RetentionTolerance DOUBLE,
		UsePPM BOOL,
		FragmentTolerance DOUBLE,
		FragmentTolerancePPM DOUBLE,
		WeightMZ DOUBLE,
		WeightIntensity DOUBLE,
		PairCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS PrecursorTable (
		RunId TEXT REFERENCES RunTable(RunId),
		PrecursorId INTEGER,
		Name TEXT,
		Mass DOUBLE,
		RetentionIndex DOUBLE,
		PRIMARY KEY (RunId, PrecursorId)
	);

	CREATE TABLE IF NOT EXISTS SimilarityTable (
		RunId TEXT REFERENCES RunTable(RunId),
		PrecursorId1 INTEGER,
		PrecursorId2 INTEGER,
		Score DOUBLE,
		Status TEXT,
		PRIMARY KEY (RunId, PrecursorId1, PrecursorId2)
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func (w *Writer) insertRun(run Run) error {
	_, err := w.db.Exec(`
		INSERT INTO RunTable (
			RunId, CreationDate, Library, MassTolerance, RetentionTolerance, UsePPM,
			FragmentTolerance, FragmentTolerancePPM, WeightMZ, WeightIntensity, PairCount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.runID,
		run.Created.Format(runDateFormat),
		run.Library,
		run.MassTolerance,
		run.RetentionTolerance,
		run.UsePPM,
		run.FragmentAbsolute,
		run.FragmentPPM,
		run.WeightMZ,
		run.WeightIntensity,
		run.PairCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.precursorStmt, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO PrecursorTable (RunId, PrecursorId, Name, Mass, RetentionIndex)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare precursor statement: %w", err)
	}

	w.resultStmt, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO SimilarityTable (RunId, PrecursorId1, PrecursorId2, Score, Status)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare similarity statement: %w", err)
	}

	return nil
}

// WritePrecursors writes every record of the index.
func (w *Writer) WritePrecursors(ix *precursor.Index) error {
	for _, rec := range ix.Records() {
		_, err := w.precursorStmt.Exec(w.runID, rec.ID, rec.Name, rec.Mass, rec.RetentionIndex)
		if err != nil {
			return fmt.Errorf("failed to insert precursor %d: %w", rec.ID, err)
		}
	}
	return nil
}

// WriteResult writes a single similarity result. Results without a score
// are stored with a NULL Score.
func (w *Writer) WriteResult(r pipeline.Result) error {
	var score any
	if r.OK() {
		score = r.Score
	}

	_, err := w.resultStmt.Exec(w.runID, r.A, r.B, score, r.Status.String())
	if err != nil {
		return fmt.Errorf("failed to insert result %d-%d: %w", r.A, r.B, err)
	}

	w.results++
	return nil
}

// WriteResults writes results in order.
func (w *Writer) WriteResults(results []pipeline.Result) error {
	for _, r := range results {
		if err := w.WriteResult(r); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of results written so far.
func (w *Writer) Count() int {
	return w.results
}

// Finalize commits the transaction and closes the database
func (w *Writer) Finalize() error {
	// Close prepared statements
	if w.precursorStmt != nil {
		w.precursorStmt.Close()
	}
	if w.resultStmt != nil {
		w.resultStmt.Close()
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit results: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Abort discards everything written since NewWriter except the run row.
func (w *Writer) Abort() error {
	w.tx.Rollback()
	return w.db.Close()
}
