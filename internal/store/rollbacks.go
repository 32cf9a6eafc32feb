package store

import (
	"database/sql"

	"github.com/evoludigit/pggit/internal/models"
)

// CreateRollbackOperation records the start of a rollback attempt
func (s *Store) CreateRollbackOperation(op *models.RollbackOperation) error {
	_, err := s.db.Exec(`
		INSERT INTO rollbacks (id, branch_id, source_commit, target_commit, rollback_type, mode, status, rollback_commit, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.BranchID, op.SourceCommit, nullable(op.TargetCommit),
		string(op.Type), string(op.Mode), string(op.Status), nullable(op.RollbackCommit), op.StartedAt,
	)
	return err
}

// GetRollbackOperation retrieves a rollback operation by ID
func (s *Store) GetRollbackOperation(id string) (*models.RollbackOperation, error) {
	var op models.RollbackOperation
	var typ, mode, status, startedAt string
	var targetCommit, rollbackCommit, finishedAt sql.NullString

	err := s.db.QueryRow(`
		SELECT id, branch_id, source_commit, target_commit, rollback_type, mode, status, rollback_commit, started_at, finished_at
		FROM rollbacks WHERE id = ?`, id).Scan(
		&op.ID, &op.BranchID, &op.SourceCommit, &targetCommit, &typ, &mode, &status,
		&rollbackCommit, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	op.TargetCommit = targetCommit.String
	op.Type = models.RollbackType(typ)
	op.Mode = models.RollbackMode(mode)
	op.Status = models.RollbackStatus(status)
	op.RollbackCommit = rollbackCommit.String
	op.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		op.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &op, nil
}

// UpdateRollbackOperation persists the terminal state of a rollback
func (s *Store) UpdateRollbackOperation(q querier, op *models.RollbackOperation) error {
	if q == nil {
		q = s.db
	}
	res, err := q.Exec(`
		UPDATE rollbacks SET status = ?, rollback_commit = ?, finished_at = ?
		WHERE id = ?`,
		string(op.Status), nullable(op.RollbackCommit), touchFinished(op.FinishedAt), op.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "rollback", op.ID)
}
