package store

import (
	"database/sql"

	"github.com/evoludigit/pggit/internal/models"
)

const commitColumns = "hash, branch_id, parent_hash, merge_parent_hash, author, message, timestamp, entry_count"

// CreateCommit inserts a commit, optionally inside an enclosing transaction
func (s *Store) CreateCommit(q querier, commit *models.Commit) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO commits (`+commitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		commit.Hash, commit.BranchID, nullable(commit.ParentHash), nullable(commit.MergeParent),
		commit.Author, commit.Message, commit.Timestamp, commit.EntryCount,
	)
	return err
}

// GetCommit retrieves a commit by hash
func (s *Store) GetCommit(hash string) (*models.Commit, error) {
	return scanCommit(s.db.QueryRow(
		"SELECT "+commitColumns+" FROM commits WHERE hash = ?", hash))
}

// GetCommitByShortHash retrieves a commit by hash prefix
func (s *Store) GetCommitByShortHash(short string) (*models.Commit, error) {
	return scanCommit(s.db.QueryRow(
		"SELECT "+commitColumns+" FROM commits WHERE hash LIKE ?", short+"%"))
}

// ResolveCommit accepts a full or short hash and returns the commit
func (s *Store) ResolveCommit(ref string) (*models.Commit, error) {
	c, err := s.GetCommit(ref)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return s.GetCommitByShortHash(ref)
}

// GetCommitLog returns commits on a branch in reverse chronological order
func (s *Store) GetCommitLog(branchID string, limit int) ([]*models.Commit, error) {
	query := "SELECT " + commitColumns + " FROM commits WHERE branch_id = ? ORDER BY timestamp DESC, hash"
	args := []any{branchID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []*models.Commit
	for rows.Next() {
		c, err := scanCommitRows(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// GetCommitsBetween returns the commits on a branch from start to end
// (inclusive, chronological order). Start and end must both exist on the
// branch and start must not be newer than end.
func (s *Store) GetCommitsBetween(branchID, startHash, endHash string) ([]*models.Commit, error) {
	start, err := s.GetCommit(startHash)
	if err != nil {
		return nil, err
	}
	end, err := s.GetCommit(endHash)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT `+commitColumns+` FROM commits
		WHERE branch_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, hash`,
		branchID, start.Timestamp, end.Timestamp)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []*models.Commit
	for rows.Next() {
		c, err := scanCommitRows(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

func scanCommit(row *sql.Row) (*models.Commit, error) {
	var c models.Commit
	var parent, mergeParent sql.NullString
	var ts string

	err := row.Scan(&c.Hash, &c.BranchID, &parent, &mergeParent, &c.Author, &c.Message, &ts, &c.EntryCount)
	if err != nil {
		return nil, err
	}
	c.ParentHash = parent.String
	c.MergeParent = mergeParent.String
	c.Timestamp = parseTimestamp(ts)
	return &c, nil
}

func scanCommitRows(rows *sql.Rows) (*models.Commit, error) {
	var c models.Commit
	var parent, mergeParent sql.NullString
	var ts string

	err := rows.Scan(&c.Hash, &c.BranchID, &parent, &mergeParent, &c.Author, &c.Message, &ts, &c.EntryCount)
	if err != nil {
		return nil, err
	}
	c.ParentHash = parent.String
	c.MergeParent = mergeParent.String
	c.Timestamp = parseTimestamp(ts)
	return &c, nil
}
