package store

import (
	"database/sql"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

const historyColumns = "id, object_id, branch_id, change_type, before_hash, after_hash, before_def, after_def, commit_hash, author, timestamp"

// AppendEntry appends one entry to the history ledger and advances the
// derived head index for its object/branch. Ledger rows are never updated
// or deleted; this is the only write path.
func (s *Store) AppendEntry(q querier, e *models.HistoryEntry) error {
	if q == nil {
		q = s.db
	}
	res, err := q.Exec(`
		INSERT INTO history (object_id, branch_id, change_type, before_hash, after_hash, before_def, after_def, commit_hash, author, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ObjectID, e.BranchID, string(e.ChangeType),
		nullable(e.BeforeHash), nullable(e.AfterHash),
		nullable(e.BeforeDef), nullable(e.AfterDef),
		nullable(e.CommitHash), e.Author, e.Timestamp,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id

	_, err = q.Exec(`
		INSERT INTO object_heads (branch_id, object_id, history_id)
		VALUES (?, ?, ?)
		ON CONFLICT(branch_id, object_id) DO UPDATE SET history_id = ?`,
		e.BranchID, e.ObjectID, id, id,
	)
	return err
}

// LatestEntry returns the head entry for an object on a branch, or nil if
// the object has no local history there.
func (s *Store) LatestEntry(branchID, objectID string) (*models.HistoryEntry, error) {
	entry, err := scanEntry(s.db.QueryRow(`
		SELECT h.id, h.object_id, h.branch_id, h.change_type, h.before_hash, h.after_hash,
		       h.before_def, h.after_def, h.commit_hash, h.author, h.timestamp
		FROM object_heads oh JOIN history h ON h.id = oh.history_id
		WHERE oh.branch_id = ? AND oh.object_id = ?`, branchID, objectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// LatestEntryBefore returns the newest entry for an object on a branch with
// timestamp <= ts, or nil if none exists.
func (s *Store) LatestEntryBefore(branchID, objectID string, ts time.Time) (*models.HistoryEntry, error) {
	entry, err := scanEntry(s.db.QueryRow(`
		SELECT `+historyColumns+` FROM history
		WHERE branch_id = ? AND object_id = ? AND timestamp <= ?
		ORDER BY timestamp DESC, id DESC LIMIT 1`, branchID, objectID, ts))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

// GetEntriesByCommit returns all entries recorded for a commit, in append order
func (s *Store) GetEntriesByCommit(commitHash string) ([]*models.HistoryEntry, error) {
	return s.queryEntries(`
		SELECT `+historyColumns+` FROM history
		WHERE commit_hash = ? ORDER BY id`, commitHash)
}

// GetObjectHistory returns all entries for one object on a branch, oldest first
func (s *Store) GetObjectHistory(branchID, objectID string) ([]*models.HistoryEntry, error) {
	return s.queryEntries(`
		SELECT `+historyColumns+` FROM history
		WHERE branch_id = ? AND object_id = ? ORDER BY id`, branchID, objectID)
}

// GetBranchEntriesUpTo returns all entries on a branch with timestamp <= ts,
// in append order. Used for time-travel replay.
func (s *Store) GetBranchEntriesUpTo(branchID string, ts time.Time) ([]*models.HistoryEntry, error) {
	return s.queryEntries(`
		SELECT `+historyColumns+` FROM history
		WHERE branch_id = ? AND timestamp <= ? ORDER BY timestamp, id`, branchID, ts)
}

// GetBranchEntriesBetween returns all entries on a branch within [from, to],
// in append order. Used for time-window undo.
func (s *Store) GetBranchEntriesBetween(branchID string, from, to time.Time) ([]*models.HistoryEntry, error) {
	return s.queryEntries(`
		SELECT `+historyColumns+` FROM history
		WHERE branch_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id`, branchID, from, to)
}

// CountEntries returns the total number of ledger rows (test support for
// the append-only law).
func (s *Store) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&n)
	return n, err
}

func (s *Store) queryEntries(query string, args ...any) ([]*models.HistoryEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.HistoryEntry, error) {
	var e models.HistoryEntry
	var beforeHash, afterHash, beforeDef, afterDef, commitHash sql.NullString
	var changeType, ts string

	err := row.Scan(&e.ID, &e.ObjectID, &e.BranchID, &changeType,
		&beforeHash, &afterHash, &beforeDef, &afterDef, &commitHash, &e.Author, &ts)
	if err != nil {
		return nil, err
	}
	e.ChangeType = models.ChangeType(changeType)
	e.BeforeHash = beforeHash.String
	e.AfterHash = afterHash.String
	e.BeforeDef = beforeDef.String
	e.AfterDef = afterDef.String
	e.CommitHash = commitHash.String
	e.Timestamp = parseTimestamp(ts)
	return &e, nil
}
