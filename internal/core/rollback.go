package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evoludigit/pggit/internal/models"
)

// rollbackRequest carries one resolved rollback call through the pipeline.
type rollbackRequest struct {
	scope         *rollbackScope
	mode          models.RollbackMode
	order         models.RangeOrder
	validateFirst bool
	allowWarnings bool
}

// RollbackCommit undoes a single commit on a branch by appending inverse
// history entries under a new rollback commit. DRY_RUN reports the plan
// without writing; VALIDATED stops after validation and planning.
func (e *Engine) RollbackCommit(ctx context.Context, branchRef, commitRef string, validateFirst, allowWarnings bool, mode models.RollbackMode) (*models.RollbackResult, error) {
	scope, err := e.scopeForCommit(branchRef, commitRef)
	if err != nil {
		return nil, err
	}
	return e.runRollback(ctx, &rollbackRequest{
		scope:         scope,
		mode:          mode,
		order:         models.OrderDependency,
		validateFirst: validateFirst,
		allowWarnings: allowWarnings,
	})
}

// RollbackRange undoes every change between two commits, inclusive,
// collapsing repeated changes to the same object into one net inverse.
func (e *Engine) RollbackRange(ctx context.Context, branchRef, startRef, endRef string, order models.RangeOrder, mode models.RollbackMode) (*models.RollbackResult, error) {
	scope, err := e.scopeForRange(branchRef, startRef, endRef)
	if err != nil {
		return nil, err
	}
	if order == "" {
		order = models.OrderReverseChronological
	}
	return e.runRollback(ctx, &rollbackRequest{
		scope:         scope,
		mode:          mode,
		order:         order,
		validateFirst: true,
	})
}

// RollbackToTimestamp undoes everything recorded on the branch after the
// given instant.
func (e *Engine) RollbackToTimestamp(ctx context.Context, branchRef string, ts time.Time, validateFirst bool, mode models.RollbackMode) (*models.RollbackResult, error) {
	scope, err := e.scopeForTimestamp(branchRef, ts)
	if err != nil {
		return nil, err
	}
	return e.runRollback(ctx, &rollbackRequest{
		scope:         scope,
		mode:          mode,
		order:         models.OrderDependency,
		validateFirst: validateFirst,
	})
}

// runRollback is the shared five-stage pipeline: validation, planning,
// simulation, execution, verification. Each stage is terminal on failure.
func (e *Engine) runRollback(ctx context.Context, req *rollbackRequest) (*models.RollbackResult, error) {
	if req.mode == "" {
		req.mode = models.ModeExecuted
	}
	scope := req.scope

	op := &models.RollbackOperation{
		ID:           uuid.NewString(),
		BranchID:     scope.branch.ID,
		SourceCommit: scope.sourceCommit,
		TargetCommit: scope.targetCommit,
		Type:         scope.rbType,
		Mode:         req.mode,
		Status:       models.RollbackPending,
		StartedAt:    time.Now().UTC(),
	}

	e.log.Info().
		Str("rollback_id", op.ID).
		Str("branch", scope.branch.Name).
		Str("type", string(scope.rbType)).
		Str("mode", string(req.mode)).
		Int("entries", len(scope.entries)).
		Msg("rollback started")

	var findings []*models.ValidationFinding
	if req.validateFirst || req.mode == models.ModeValidated {
		var err error
		findings, err = e.validateScope(scope)
		if err != nil {
			return nil, err
		}
		if blocking := blockingFindings(findings, req.allowWarnings); len(blocking) > 0 {
			op.Status = models.RollbackBlocked
			op.FinishedAt = time.Now().UTC()
			if err := e.store.CreateRollbackOperation(op); err != nil {
				return nil, err
			}
			e.log.Warn().
				Str("rollback_id", op.ID).
				Int("blocking", len(blocking)).
				Msg("rollback blocked by validation")
			return rollbackResult(op, nil, findings), nil
		}
	}

	changes, err := e.buildPlan(scope.entries, req.order)
	if err != nil {
		return nil, err
	}

	switch req.mode {
	case models.ModeValidated:
		op.Status = models.RollbackValidated
		op.FinishedAt = time.Now().UTC()
		if err := e.store.CreateRollbackOperation(op); err != nil {
			return nil, err
		}
		return rollbackResult(op, changes, findings), nil
	case models.ModeDryRun:
		// Simulation applies the plan to an in-memory copy of the state and
		// reports the execution result shape without committing anything.
		if err := e.simulate(scope, changes); err != nil {
			op.Status = models.RollbackFailed
			op.FinishedAt = time.Now().UTC()
			if createErr := e.store.CreateRollbackOperation(op); createErr != nil {
				return nil, createErr
			}
			return nil, err
		}
		op.Status = models.RollbackSimulated
		op.FinishedAt = time.Now().UTC()
		if err := e.store.CreateRollbackOperation(op); err != nil {
			return nil, err
		}
		return rollbackResult(op, changes, findings), nil
	case models.ModeExecuted:
		return e.execute(ctx, op, scope, changes, findings)
	default:
		return nil, fmt.Errorf("unknown rollback mode %q", req.mode)
	}
}

// simulate applies the plan to a copy of the branch head state and checks
// every planned definition hashes to its expected value.
func (e *Engine) simulate(scope *rollbackScope, changes []*plannedChange) error {
	state, err := e.stateAt(scope.branch, time.Time{})
	if err != nil {
		return err
	}
	sim := make(map[string]string, len(state))
	for id, entry := range state {
		sim[id] = entry.AfterHash
	}
	for _, c := range changes {
		if got := sim[c.op.ObjectID]; got != c.currentHash {
			return &TransactionAbortedError{
				Stage: "SIMULATION",
				Cause: fmt.Errorf("%s changed since planning (have %s, planned from %s)", c.op.ObjectName, short(got), short(c.currentHash)),
			}
		}
		if c.expectedHash == "" {
			delete(sim, c.op.ObjectID)
			continue
		}
		if got := models.HashDefinition(c.op.AfterDef); got != c.expectedHash {
			return &TransactionAbortedError{
				Stage: "SIMULATION",
				Cause: fmt.Errorf("%s: restored definition hashes to %s, history records %s", c.op.ObjectName, short(got), short(c.expectedHash)),
			}
		}
		sim[c.op.ObjectID] = c.expectedHash
	}
	return nil
}

// execute writes the inverse entries, the rollback commit and the branch
// head inside one transaction, then verifies the resulting hashes against
// the historical target state. Any mismatch rolls the transaction back.
func (e *Engine) execute(ctx context.Context, op *models.RollbackOperation, scope *rollbackScope, changes []*plannedChange, findings []*models.ValidationFinding) (*models.RollbackResult, error) {
	unlock := e.lockBranches(scope.branch.ID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The branch may have advanced between planning and locking.
	for _, c := range changes {
		latest, err := e.store.LatestEntry(scope.branch.ID, c.op.ObjectID)
		if err != nil {
			return nil, err
		}
		var liveHash string
		if latest != nil {
			liveHash = latest.AfterHash
		}
		if liveHash != c.currentHash {
			return nil, &TransactionAbortedError{
				Stage: "EXECUTION",
				Cause: fmt.Errorf("%s changed since planning (have %s, planned from %s)", c.op.ObjectName, short(liveHash), short(c.currentHash)),
			}
		}
	}

	if err := e.store.CreateRollbackOperation(op); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	author := "rollback:" + op.ID[:8]
	message := fmt.Sprintf("rollback (%s) of %s", op.Type, short(op.SourceCommit))

	entries := make([]*models.HistoryEntry, len(changes))
	for i, c := range changes {
		entries[i] = &models.HistoryEntry{
			ObjectID:   c.op.ObjectID,
			BranchID:   scope.branch.ID,
			ChangeType: models.ChangeRollback,
			BeforeHash: c.currentHash,
			AfterHash:  c.expectedHash,
			BeforeDef:  c.op.BeforeDef,
			AfterDef:   c.op.AfterDef,
			Author:     author,
			Timestamp:  now,
		}
	}

	commitHash := models.GenerateCommitHash(scope.branch.ID, message, author, now, scope.branch.HeadCommit, entries)

	txErr := e.store.InTx(func(tx *sql.Tx) error {
		commit := &models.Commit{
			Hash:       commitHash,
			BranchID:   scope.branch.ID,
			ParentHash: scope.branch.HeadCommit,
			Author:     author,
			Message:    message,
			Timestamp:  now,
			EntryCount: len(entries),
		}
		if err := e.store.CreateCommit(tx, commit); err != nil {
			return err
		}
		for i, entry := range entries {
			entry.CommitHash = commitHash
			if err := e.store.AppendEntry(tx, entry); err != nil {
				return err
			}
			// Verification: the appended after-image must hash to the value
			// history recorded for the target state.
			if got := models.HashDefinition(entry.AfterDef); got != changes[i].expectedHash {
				return &TransactionAbortedError{
					Stage: "VERIFICATION",
					Cause: fmt.Errorf("%s: state hash %s does not match historical %s", changes[i].op.ObjectName, short(got), short(changes[i].expectedHash)),
				}
			}
		}
		if err := e.store.UpdateBranchHead(tx, scope.branch.ID, commitHash); err != nil {
			return err
		}
		op.Status = models.RollbackSucceeded
		op.RollbackCommit = commitHash
		op.FinishedAt = time.Now().UTC()
		return e.store.UpdateRollbackOperation(tx, op)
	})
	if txErr != nil {
		op.Status = models.RollbackFailed
		op.FinishedAt = time.Now().UTC()
		op.RollbackCommit = ""
		if updErr := e.store.UpdateRollbackOperation(nil, op); updErr != nil {
			e.log.Error().Err(updErr).Str("rollback_id", op.ID).Msg("could not record rollback failure")
		}
		if _, ok := txErr.(*TransactionAbortedError); ok {
			return nil, txErr
		}
		return nil, &TransactionAbortedError{Stage: "EXECUTION", Cause: txErr}
	}

	e.log.Info().
		Str("rollback_id", op.ID).
		Str("commit", short(commitHash)).
		Int("objects", len(changes)).
		Msg("rollback executed")
	return rollbackResult(op, changes, findings), nil
}

func rollbackResult(op *models.RollbackOperation, changes []*plannedChange, findings []*models.ValidationFinding) *models.RollbackResult {
	return &models.RollbackResult{
		RollbackID:      op.ID,
		Status:          op.Status,
		Mode:            op.Mode,
		Type:            op.Type,
		RollbackCommit:  op.RollbackCommit,
		ObjectsAffected: len(changes),
		Plan:            planOperations(changes),
		Findings:        findings,
	}
}

func short(hash string) string {
	if len(hash) <= 8 {
		if hash == "" {
			return "(none)"
		}
		return hash
	}
	return hash[:8]
}
