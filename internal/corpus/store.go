// Package corpus persists batches of chants and their alignment runs in
// SQLite. Chants are deduplicated by a BLAKE3 digest of their text and
// melody, so re-importing the same export is idempotent.
package corpus

import (
	"context"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"github.com/chantworks/cantilena/core/errors"
	"github.com/chantworks/cantilena/internal/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS chants (
	id INTEGER PRIMARY KEY,
	cantus_id TEXT,
	incipit TEXT,
	full_text TEXT,
	volpiano TEXT,
	digest TEXT NOT NULL,
	source TEXT,
	created_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chants_cantus_id ON chants(cantus_id);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP,
	finished_at TIMESTAMP,
	chant_count INTEGER,
	review_count INTEGER,
	error_count INTEGER
);

CREATE TABLE IF NOT EXISTS results (
	run_id TEXT,
	chant_id INTEGER,
	review INTEGER,
	pair_count INTEGER,
	error TEXT,
	PRIMARY KEY (run_id, chant_id)
);
`

// Chant is one stored chant row.
type Chant struct {
	ID        int64     `json:"id"`
	CantusID  string    `json:"cantus_id,omitempty"`
	Incipit   string    `json:"incipit,omitempty"`
	FullText  string    `json:"full_text"`
	Volpiano  string    `json:"volpiano"`
	Digest    string    `json:"digest"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Digest returns the hex-encoded BLAKE3 digest identifying a chant's text
// and melody content.
func Digest(fullText, volpiano string) string {
	h := blake3.Sum256([]byte(fullText + "\n" + volpiano))
	return hex.EncodeToString(h[:])
}

// Store is a SQLite-backed chant corpus.
type Store struct {
	db *sql.DB
}

// Open opens the corpus database at path, creating it and its schema when
// missing.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply corpus schema")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertChant stores a chant and fills in its row ID. The digest must be
// set; CreatedAt defaults to the current time when zero.
func (s *Store) InsertChant(ctx context.Context, c *Chant) error {
	if c.Digest == "" {
		return errors.NewValidation("digest", "must not be empty")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chants (cantus_id, incipit, full_text, volpiano, digest, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.CantusID, c.Incipit, c.FullText, c.Volpiano, c.Digest, c.Source, c.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert chant")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to read chant row id")
	}
	c.ID = id
	return nil
}

// HasDigest reports whether a chant with the given digest is already stored.
func (s *Store) HasDigest(ctx context.Context, digest string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM chants WHERE digest = ? LIMIT 1`, digest).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to look up digest")
	}
	return true, nil
}

// ChantCount returns the number of stored chants.
func (s *Store) ChantCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chants`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count chants")
	}
	return n, nil
}

// Chants returns all stored chants in insertion order.
func (s *Store) Chants(ctx context.Context) ([]Chant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cantus_id, incipit, full_text, volpiano, digest, source, created_at
		 FROM chants ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query chants")
	}
	defer rows.Close()

	var chants []Chant
	for rows.Next() {
		c, err := scanChant(rows)
		if err != nil {
			return nil, err
		}
		chants = append(chants, c)
	}
	return chants, rows.Err()
}

func scanChant(rows *sql.Rows) (Chant, error) {
	var c Chant
	var cantusID, incipit, fullText, volpiano, source sql.NullString
	var createdAt sql.NullTime
	if err := rows.Scan(&c.ID, &cantusID, &incipit, &fullText, &volpiano, &c.Digest, &source, &createdAt); err != nil {
		return Chant{}, errors.Wrap(err, "failed to scan chant row")
	}
	c.CantusID = cantusID.String
	c.Incipit = incipit.String
	c.FullText = fullText.String
	c.Volpiano = volpiano.String
	c.Source = source.String
	c.CreatedAt = createdAt.Time
	return c, nil
}

// CreateRun records the start of a batch alignment run.
func (s *Store) CreateRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`, id, startedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create run")
	}
	return nil
}

// FinishRun records the completion and counters of a batch alignment run.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt time.Time, chantCount, reviewCount, errorCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, chant_count = ?, review_count = ?, error_count = ?
		 WHERE id = ?`,
		finishedAt, chantCount, reviewCount, errorCount, id)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	return nil
}

// InsertResult records the outcome of aligning one chant within a run.
func (s *Store) InsertResult(ctx context.Context, runID string, chantID int64, review bool, pairCount int, errText string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (run_id, chant_id, review, pair_count, error)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, chantID, review, pairCount, errText)
	if err != nil {
		return errors.Wrap(err, "failed to insert result")
	}
	return nil
}
