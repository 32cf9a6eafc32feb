package store

import (
	"database/sql"
	"fmt"

	"github.com/evoludigit/pggit/internal/models"
)

// CreateBranch inserts a branch record. Branch lifecycle is owned by the
// branch-CRUD collaborator; this exists for ingestion and tests.
func (s *Store) CreateBranch(b *models.Branch) error {
	_, err := s.db.Exec(`
		INSERT INTO branches (id, name, parent_branch_id, status, head_commit, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, nullable(b.ParentID), string(b.Status), nullable(b.HeadCommit), b.CreatedAt,
	)
	return err
}

// GetBranch retrieves a branch by ID
func (s *Store) GetBranch(id string) (*models.Branch, error) {
	return scanBranch(s.db.QueryRow(`
		SELECT id, name, parent_branch_id, status, head_commit, created_at
		FROM branches WHERE id = ?`, id))
}

// GetBranchByName retrieves a branch by name
func (s *Store) GetBranchByName(name string) (*models.Branch, error) {
	return scanBranch(s.db.QueryRow(`
		SELECT id, name, parent_branch_id, status, head_commit, created_at
		FROM branches WHERE name = ?`, name))
}

// ResolveBranch accepts either a branch ID or name and returns the branch
func (s *Store) ResolveBranch(ref string) (*models.Branch, error) {
	b, err := s.GetBranch(ref)
	if err == nil {
		return b, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	return s.GetBranchByName(ref)
}

// ListBranches returns all branches ordered by creation time
func (s *Store) ListBranches() ([]*models.Branch, error) {
	rows, err := s.db.Query(`
		SELECT id, name, parent_branch_id, status, head_commit, created_at
		FROM branches ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*models.Branch
	for rows.Next() {
		b, err := scanBranchRows(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// GetRootBranch returns the designated root branch (the one with no parent).
func (s *Store) GetRootBranch() (*models.Branch, error) {
	return scanBranch(s.db.QueryRow(`
		SELECT id, name, parent_branch_id, status, head_commit, created_at
		FROM branches WHERE parent_branch_id IS NULL OR parent_branch_id = ''
		ORDER BY created_at LIMIT 1`))
}

// UpdateBranchStatus sets the branch status
func (s *Store) UpdateBranchStatus(q querier, id string, status models.BranchStatus) error {
	res, err := q.Exec("UPDATE branches SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "branch", id)
}

// UpdateBranchHead moves the branch head pointer
func (s *Store) UpdateBranchHead(q querier, id, commitHash string) error {
	res, err := q.Exec("UPDATE branches SET head_commit = ? WHERE id = ?", commitHash, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "branch", id)
}

func requireRowAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}

func scanBranch(row *sql.Row) (*models.Branch, error) {
	var b models.Branch
	var parentID, headCommit sql.NullString
	var status, createdAt string

	err := row.Scan(&b.ID, &b.Name, &parentID, &status, &headCommit, &createdAt)
	if err != nil {
		return nil, err
	}
	b.ParentID = parentID.String
	b.HeadCommit = headCommit.String
	b.Status = models.BranchStatus(status)
	b.CreatedAt = parseTimestamp(createdAt)
	return &b, nil
}

func scanBranchRows(rows *sql.Rows) (*models.Branch, error) {
	var b models.Branch
	var parentID, headCommit sql.NullString
	var status, createdAt string

	err := rows.Scan(&b.ID, &b.Name, &parentID, &status, &headCommit, &createdAt)
	if err != nil {
		return nil, err
	}
	b.ParentID = parentID.String
	b.HeadCommit = headCommit.String
	b.Status = models.BranchStatus(status)
	b.CreatedAt = parseTimestamp(createdAt)
	return &b, nil
}
