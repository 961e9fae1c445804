// Package sqlite provides SQLite persistence for extracted XICs and isotope patterns
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/fe"
)

const (
	// Date format for HeaderTable and RunTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Schema version written to HeaderTable
	schemaVersion = 1
)

// Writer handles writing extraction results to SQLite database files. It is
// safe for concurrent use; every run is written in its own transaction.
type Writer struct {
	mu         sync.Mutex
	db         *sql.DB
	outputPath string
	xicID      int64
	patternID  int64
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	w := &Writer{
		db:         db,
		outputPath: outputPath,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.loadIDs(); err != nil {
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
		SourceFile TEXT,
		CreationDate TEXT,
		Parameters TEXT,
		NumCentroids INTEGER,
		NumXics INTEGER,
		NumPatterns INTEGER
	);

	CREATE TABLE IF NOT EXISTS XicTable (
		XicId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		Mz DOUBLE,
		MzSigma DOUBLE,
		RetentionTime DOUBLE,
		RetentionTimeSigma DOUBLE,
		Abundance DOUBLE,
		FirstScan INTEGER,
		LastScan INTEGER,
		blobMass BLOB,
		blobRetentionTime BLOB,
		blobAbundance BLOB,
		blobScan BLOB
	);

	CREATE TABLE IF NOT EXISTS PatternTable (
		PatternId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		Charges TEXT,
		RetentionTime DOUBLE,
		Abundance DOUBLE,
		MonoisotopicMz DOUBLE,
		NumXics INTEGER
	);

	CREATE TABLE IF NOT EXISTS PatternXicTable (
		PatternId INTEGER REFERENCES PatternTable(PatternId),
		XicId INTEGER REFERENCES XicTable(XicId),
		Position INTEGER
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// loadIDs continues numbering after rows already in an existing file
func (w *Writer) loadIDs() error {
	if err := w.db.QueryRow(`SELECT COALESCE(MAX(XicId), 0) FROM XicTable`).Scan(&w.xicID); err != nil {
		return fmt.Errorf("failed to read xic ids: %w", err)
	}
	if err := w.db.QueryRow(`SELECT COALESCE(MAX(PatternId), 0) FROM PatternTable`).Scan(&w.patternID); err != nil {
		return fmt.Errorf("failed to read pattern ids: %w", err)
	}
	return nil
}

// Run is the result of extracting one input file.
type Run struct {
	SourceFile   string
	Parameters   string
	NumCentroids int
	Xics         []fe.Xic
	Patterns     []fe.IsotopePattern
}

// xicKey identifies a Xic by its summaries; pattern members are copies of
// extracted XICs and map back to their rows this way.
type xicKey struct {
	mz, rt, abundance float64
	first, last       uint32
}

func keyOf(x fe.Xic) xicKey {
	return xicKey{x.Mz(), x.RetentionTime(), x.Abundance(), x.FirstScan(), x.LastScan()}
}

// WriteRun writes a run with its XICs and patterns in a single transaction
// and returns the generated run id.
func (w *Writer) WriteRun(ctx context.Context, run Run) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO RunTable (RunId, SourceFile, CreationDate, Parameters, NumCentroids, NumXics, NumPatterns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, run.SourceFile, time.Now().Format(headerDateFormat), run.Parameters,
		run.NumCentroids, len(run.Xics), len(run.Patterns))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	xicStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO XicTable (
			XicId, RunId, Mz, MzSigma, RetentionTime, RetentionTimeSigma, Abundance,
			FirstScan, LastScan, blobMass, blobRetentionTime, blobAbundance, blobScan
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare xic statement: %w", err)
	}
	defer xicStmt.Close()

	nextXic := w.xicID
	ids := make(map[xicKey]int64, len(run.Xics))
	insertXic := func(x fe.Xic) (int64, error) {
		nextXic++
		_, err := xicStmt.ExecContext(ctx,
			nextXic, runID,
			x.Mz(), x.MzSigma(), x.RetentionTime(), x.RetentionTimeSigma(), x.Abundance(),
			x.FirstScan(), x.LastScan(),
			encodeFloat64(x.Centroids, func(c core.Centroid) float64 { return c.Mz }),
			encodeFloat64(x.Centroids, func(c core.Centroid) float64 { return c.RetentionTime }),
			encodeFloat64(x.Centroids, func(c core.Centroid) float64 { return c.Abundance }),
			encodeUint32(x.Centroids),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert xic: %w", err)
		}
		ids[keyOf(x)] = nextXic
		return nextXic, nil
	}

	for _, x := range run.Xics {
		if _, err := insertXic(x); err != nil {
			return "", err
		}
	}

	nextPattern := w.patternID
	for _, p := range run.Patterns {
		nextPattern++
		var mono float64
		if p.Len() > 0 {
			mono = p.Xics[0].Mz()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO PatternTable (PatternId, RunId, Charges, RetentionTime, Abundance, MonoisotopicMz, NumXics)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, nextPattern, runID, joinCharges(p.Charges), p.RetentionTime(), p.Abundance(), mono, p.Len())
		if err != nil {
			return "", fmt.Errorf("failed to insert pattern: %w", err)
		}

		for pos, x := range p.Xics {
			id, ok := ids[keyOf(x)]
			if !ok {
				if id, err = insertXic(x); err != nil {
					return "", err
				}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO PatternXicTable (PatternId, XicId, Position) VALUES (?, ?, ?)
			`, nextPattern, id, pos)
			if err != nil {
				return "", fmt.Errorf("failed to link pattern: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	w.xicID, w.patternID = nextXic, nextPattern
	return runID, nil
}

func joinCharges(zs []int) string {
	s := make([]string, len(zs))
	for i, z := range zs {
		s[i] = strconv.Itoa(z)
	}
	return strings.Join(s, ",")
}

// encodeFloat64 encodes centroid data as little-endian float64 blob
func encodeFloat64(cs []core.Centroid, value func(core.Centroid) float64) []byte {
	buf := make([]byte, len(cs)*8)
	for i, c := range cs {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value(c)))
	}
	return buf
}

// encodeUint32 encodes scan numbers as little-endian uint32 blob
func encodeUint32(cs []core.Centroid) []byte {
	buf := make([]byte, len(cs)*4)
	for i, c := range cs {
		binary.LittleEndian.PutUint32(buf[i*4:], c.ScanNumber)
	}
	return buf
}

// DecodeFloat64 decodes a little-endian float64 blob.
func DecodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Write HeaderTable
	now := time.Now().Format(headerDateFormat)
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description)
		VALUES (?, ?, ?, ?)
	`, schemaVersion, now, now, "mstk feature extraction")
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
