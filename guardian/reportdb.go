package guardian

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import go-sqlite3 library
)

// ErrRunMissing should be returned from ReportStore.Run for unknown run ids
var ErrRunMissing = errors.New("Verification Run Not Found")

// ReportStore keeps verification reports in SQLite, so repeated runs
// over the same record can be compared later.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore opens (and if needed initialises) the store at path.
func NewReportStore(path string) (*ReportStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// two statements, so Exec directly rather than Prepare
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record TEXT NOT NULL,           -- path of the record verified
			epoch_seconds INTEGER NOT NULL, -- unix timestamp in seconds
			valid INTEGER NOT NULL          -- 1 when no failures
		);
		CREATE TABLE IF NOT EXISTS failures (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,   -- position in the record
			kind TEXT NOT NULL,   -- failure classification
			detail TEXT NOT NULL
		);
	`)
	if err != nil {
		return nil, err
	}
	return &ReportStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Save writes one report and returns the run id.
func (s *ReportStore) Save(record string, rep *Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	valid := 0
	if rep.Valid {
		valid = 1
	}
	res, err := tx.Exec(
		`INSERT INTO runs (record, epoch_seconds, valid) VALUES (?, ?, ?)`,
		record, time.Now().Unix(), valid,
	)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, fail := range rep.Failures {
		if _, err := tx.Exec(
			`INSERT INTO failures (run_id, path, kind, detail) VALUES (?, ?, ?, ?)`,
			id, fail.Path, string(fail.Kind), fail.Detail,
		); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	return id, tx.Commit()
}

// Run fetches one stored report by run id.
func (s *ReportStore) Run(id int64) (*Report, error) {
	row := s.db.QueryRow(`SELECT valid FROM runs WHERE id = ?`, id)
	var valid int
	if err := row.Scan(&valid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunMissing
		}
		return nil, err
	}
	rep := &Report{Valid: valid == 1, Failures: []Failure{}}
	rows, err := s.db.Query(
		`SELECT path, kind, detail FROM failures WHERE run_id = ? ORDER BY rowid`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var fail Failure
		var kind string
		if err := rows.Scan(&fail.Path, &kind, &fail.Detail); err != nil {
			return nil, err
		}
		fail.Kind = ErrorKind(kind)
		rep.Failures = append(rep.Failures, fail)
	}
	return rep, rows.Err()
}
