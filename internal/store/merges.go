package store

import (
	"database/sql"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// CreateMergeOperation records the start of a merge attempt
func (s *Store) CreateMergeOperation(op *models.MergeOperation) error {
	_, err := s.db.Exec(`
		INSERT INTO merges (id, source_branch, target_branch, merge_base, strategy, status,
			conflicts_detected, conflicts_resolved, result_commit, message, author, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.SourceBranch, op.TargetBranch, op.MergeBase, string(op.Strategy), string(op.Status),
		op.ConflictsDetected, op.ConflictsResolved, nullable(op.ResultCommit), nullable(op.Message), op.Author, op.StartedAt,
	)
	return err
}

// GetMergeOperation retrieves a merge operation by ID
func (s *Store) GetMergeOperation(id string) (*models.MergeOperation, error) {
	var op models.MergeOperation
	var strategy, status, startedAt string
	var resultCommit, message, finishedAt sql.NullString

	err := s.db.QueryRow(`
		SELECT id, source_branch, target_branch, merge_base, strategy, status,
			conflicts_detected, conflicts_resolved, result_commit, message, author, started_at, finished_at
		FROM merges WHERE id = ?`, id).Scan(
		&op.ID, &op.SourceBranch, &op.TargetBranch, &op.MergeBase, &strategy, &status,
		&op.ConflictsDetected, &op.ConflictsResolved, &resultCommit, &message, &op.Author, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	op.Strategy = models.MergeStrategy(strategy)
	op.Status = models.MergeStatus(status)
	op.ResultCommit = resultCommit.String
	op.Message = message.String
	op.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		op.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &op, nil
}

// UpdateMergeOperation persists the mutable fields of an in-flight merge
func (s *Store) UpdateMergeOperation(q querier, op *models.MergeOperation) error {
	if q == nil {
		q = s.db
	}
	res, err := q.Exec(`
		UPDATE merges SET status = ?, conflicts_detected = ?, conflicts_resolved = ?,
			result_commit = ?, finished_at = ?
		WHERE id = ?`,
		string(op.Status), op.ConflictsDetected, op.ConflictsResolved,
		nullable(op.ResultCommit), touchFinished(op.FinishedAt), op.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "merge", op.ID)
}

// SaveConflicts records the detected conflicts of a merge
func (s *Store) SaveConflicts(q querier, mergeID string, conflicts []*models.Conflict) error {
	if q == nil {
		q = s.db
	}
	for _, c := range conflicts {
		_, err := q.Exec(`
			INSERT INTO merge_conflicts (merge_id, object_id, object_type, object_name,
				conflict_type, severity, base_hash, source_hash, target_hash,
				base_def, source_def, target_def, auto_resolvable, resolved, resolution, resolved_def)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			mergeID, c.ObjectID, string(c.ObjectType), c.ObjectName,
			string(c.Type), string(c.Severity),
			nullable(c.BaseHash), nullable(c.SourceHash), nullable(c.TargetHash),
			nullable(c.BaseDef), nullable(c.SourceDef), nullable(c.TargetDef),
			c.AutoResolvable, c.Resolved, nullable(string(c.Resolution)), nullable(c.ResolvedDef),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetConflicts returns the recorded conflicts of a merge
func (s *Store) GetConflicts(mergeID string) ([]*models.Conflict, error) {
	rows, err := s.db.Query(`
		SELECT object_id, object_type, object_name, conflict_type, severity,
			base_hash, source_hash, target_hash, base_def, source_def, target_def,
			auto_resolvable, resolved, resolution, resolved_def
		FROM merge_conflicts WHERE merge_id = ? ORDER BY object_name`, mergeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []*models.Conflict
	for rows.Next() {
		var c models.Conflict
		var objType, confType, severity string
		var baseHash, sourceHash, targetHash, baseDef, sourceDef, targetDef, resolution, resolvedDef sql.NullString

		err := rows.Scan(&c.ObjectID, &objType, &c.ObjectName, &confType, &severity,
			&baseHash, &sourceHash, &targetHash, &baseDef, &sourceDef, &targetDef,
			&c.AutoResolvable, &c.Resolved, &resolution, &resolvedDef)
		if err != nil {
			return nil, err
		}
		c.ObjectType = models.ObjectType(objType)
		c.Type = models.ConflictType(confType)
		c.Severity = models.ConflictSeverity(severity)
		c.BaseHash = baseHash.String
		c.SourceHash = sourceHash.String
		c.TargetHash = targetHash.String
		c.BaseDef = baseDef.String
		c.SourceDef = sourceDef.String
		c.TargetDef = targetDef.String
		c.Resolution = models.ResolutionChoice(resolution.String)
		c.ResolvedDef = resolvedDef.String
		conflicts = append(conflicts, &c)
	}
	return conflicts, rows.Err()
}

// ResolveConflictRecord marks one conflict resolved and stores the chosen definition
func (s *Store) ResolveConflictRecord(q querier, mergeID, objectID string, choice models.ResolutionChoice, resolvedDef string) error {
	if q == nil {
		q = s.db
	}
	res, err := q.Exec(`
		UPDATE merge_conflicts SET resolved = TRUE, resolution = ?, resolved_def = ?
		WHERE merge_id = ? AND object_id = ? AND resolved = FALSE`,
		string(choice), resolvedDef, mergeID, objectID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "unresolved conflict", mergeID+"/"+objectID)
}

// touchFinished is shared by merge/rollback finalization paths
func touchFinished(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
