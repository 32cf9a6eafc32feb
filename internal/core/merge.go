package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evoludigit/pggit/internal/models"
)

// MergeOptions configures merge behavior
type MergeOptions struct {
	Strategy models.MergeStrategy // defaults to ABORT_ON_CONFLICT
	Message  string
	Author   string
	Base     string // optional explicit merge base branch
}

// MergeBranches merges source into target using three-way conflict
// detection and the selected resolution strategy. Auto-resolvable items are
// always applied; the strategy only governs BOTH_MODIFIED conflicts. On
// success the source branch is marked MERGED and a result commit is written
// on the target; on CONFLICT the operation stays open for resolve calls.
func (e *Engine) MergeBranches(ctx context.Context, sourceRef, targetRef string, opts MergeOptions) (*models.MergeResult, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = models.StrategyAbortOnConflict
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown merge strategy %q", opts.Strategy)
	}

	source, err := e.store.ResolveBranch(sourceRef)
	if err != nil {
		return nil, notFound(err, "branch", sourceRef)
	}
	target, err := e.store.ResolveBranch(targetRef)
	if err != nil {
		return nil, notFound(err, "branch", targetRef)
	}
	if source.ID == target.ID {
		return nil, fmt.Errorf("cannot merge branch %q into itself", source.Name)
	}
	if source.Status != models.BranchActive {
		return nil, fmt.Errorf("source branch %q is %s, not ACTIVE", source.Name, source.Status)
	}
	if target.Status != models.BranchActive {
		return nil, fmt.Errorf("target branch %q is %s, not ACTIVE", target.Name, target.Status)
	}

	unlock := e.lockBranches(source.ID, target.ID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	states, baseBranch, err := e.threeWayStates(source, target, opts.Base)
	if err != nil {
		return nil, err
	}
	conflicts, err := e.classifyStates(states)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	op := &models.MergeOperation{
		ID:           uuid.NewString(),
		SourceBranch: source.ID,
		TargetBranch: target.ID,
		MergeBase:    baseBranch.ID,
		Strategy:     strategy,
		Status:       models.MergePending,
		Message:      opts.Message,
		Author:       opts.Author,
		StartedAt:    now,
	}

	// Pre-resolve: autos always, BOTH_MODIFIED per strategy
	unresolved := 0
	for _, c := range conflicts {
		switch c.Type {
		case models.SourceModified, models.DeletedSource:
			c.Resolved = true
			c.Resolution = models.ResolveSource
			c.ResolvedDef = c.SourceDef
		case models.TargetModified, models.DeletedTarget:
			c.Resolved = true
			c.Resolution = models.ResolveTarget
			c.ResolvedDef = c.TargetDef
		case models.BothModified:
			op.ConflictsDetected++
			switch strategy {
			case models.StrategyTargetWins:
				c.Resolved = true
				c.Resolution = models.ResolveTarget
				c.ResolvedDef = c.TargetDef
				op.ConflictsResolved++
			case models.StrategySourceWins:
				c.Resolved = true
				c.Resolution = models.ResolveSource
				c.ResolvedDef = c.SourceDef
				op.ConflictsResolved++
			case models.StrategyUnion:
				if merged, ok := unionMerge(c); ok {
					c.Resolved = true
					c.Resolution = models.ResolveUnion
					c.ResolvedDef = merged
					op.ConflictsResolved++
				} else {
					unresolved++
				}
			default: // ABORT_ON_CONFLICT, MANUAL_REVIEW
				unresolved++
			}
		}
	}

	e.log.Info().
		Str("merge_id", op.ID).
		Str("source", source.Name).
		Str("target", target.Name).
		Str("strategy", string(strategy)).
		Int("conflicts", op.ConflictsDetected).
		Msg("merge started")

	if unresolved > 0 && strategy == models.StrategyAbortOnConflict {
		op.Status = models.MergeAborted
		op.FinishedAt = time.Now().UTC()
		if err := e.persistMergeOutcome(op, conflicts); err != nil {
			return nil, err
		}
		return mergeResult(op, conflicts), nil
	}

	if unresolved > 0 {
		op.Status = models.MergeConflict
		if err := e.persistMergeOutcome(op, conflicts); err != nil {
			return nil, err
		}
		return mergeResult(op, conflicts), nil
	}

	// Everything resolved: persist the record, then apply atomically
	if err := e.persistMergeOutcome(op, conflicts); err != nil {
		return nil, err
	}
	result, err := e.finalizeMerge(op, conflicts)
	if err != nil {
		// Don't leave the persisted operation PENDING forever.
		e.abortMerge(op)
		return nil, err
	}
	return result, nil
}

// abortMerge marks a persisted operation ABORTED after a failed finalization
func (e *Engine) abortMerge(op *models.MergeOperation) {
	op.Status = models.MergeAborted
	op.FinishedAt = time.Now().UTC()
	if err := e.store.UpdateMergeOperation(nil, op); err != nil {
		e.log.Error().Err(err).Str("merge_id", op.ID).Msg("could not mark failed merge aborted")
	}
}

// persistMergeOutcome records the operation and its classified conflicts
func (e *Engine) persistMergeOutcome(op *models.MergeOperation, conflicts []*models.Conflict) error {
	if err := e.store.CreateMergeOperation(op); err != nil {
		return fmt.Errorf("record merge operation: %w", err)
	}
	if err := e.store.SaveConflicts(nil, op.ID, conflicts); err != nil {
		return fmt.Errorf("record merge conflicts: %w", err)
	}
	if op.Status != models.MergePending {
		return e.store.UpdateMergeOperation(nil, op)
	}
	return nil
}

// finalizeMerge applies all resolved conflicts to the target branch in one
// transaction: MERGE history entries, the result commit, branch pointers,
// and the source branch's MERGED status.
func (e *Engine) finalizeMerge(op *models.MergeOperation, conflicts []*models.Conflict) (*models.MergeResult, error) {
	source, err := e.store.GetBranch(op.SourceBranch)
	if err != nil {
		return nil, notFound(err, "branch", op.SourceBranch)
	}
	target, err := e.store.GetBranch(op.TargetBranch)
	if err != nil {
		return nil, notFound(err, "branch", op.TargetBranch)
	}

	now := time.Now().UTC()
	author := mergeAuthor(op)

	var entries []*models.HistoryEntry
	for _, c := range conflicts {
		entry, err := e.mergeEntryFor(target.ID, c, author, now)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}

	message := op.Message
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s' into %s", source.Name, target.Name)
	}
	commitHash := models.GenerateMergeCommitHash(
		target.ID, message, author, now, target.HeadCommit, source.HeadCommit, entries)

	op.Status = models.MergeSuccess
	op.ResultCommit = commitHash
	op.FinishedAt = now

	err = e.store.InTx(func(tx *sql.Tx) error {
		commit := &models.Commit{
			Hash:        commitHash,
			BranchID:    target.ID,
			ParentHash:  target.HeadCommit,
			MergeParent: source.HeadCommit,
			Author:      author,
			Message:     message,
			Timestamp:   now,
			EntryCount:  len(entries),
		}
		if err := e.store.CreateCommit(tx, commit); err != nil {
			return fmt.Errorf("create merge commit: %w", err)
		}
		for _, entry := range entries {
			entry.CommitHash = commitHash
			if err := e.store.AppendEntry(tx, entry); err != nil {
				return fmt.Errorf("append merge entry for %s: %w", entry.ObjectID, err)
			}
		}
		if err := e.store.UpdateBranchHead(tx, target.ID, commitHash); err != nil {
			return err
		}
		if err := e.store.UpdateBranchStatus(tx, source.ID, models.BranchMerged); err != nil {
			return err
		}
		return e.store.UpdateMergeOperation(tx, op)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("merge_id", op.ID).
		Str("result_commit", commitHash).
		Int("objects_merged", len(entries)).
		Msg("merge finalized")

	result := mergeResult(op, conflicts)
	result.ObjectsMerged = len(entries)
	return result, nil
}

// mergeEntryFor builds the MERGE history entry one resolved conflict needs
// on the target branch, or nil when the resolution keeps the target as-is.
func (e *Engine) mergeEntryFor(targetBranchID string, c *models.Conflict, author string, now time.Time) (*models.HistoryEntry, error) {
	if !c.Resolved {
		return nil, fmt.Errorf("conflict for %s is unresolved", c.ObjectName)
	}

	head, err := e.store.LatestEntry(targetBranchID, c.ObjectID)
	if err != nil {
		return nil, err
	}
	currentHash, currentDef := entryHash(head), entryDef(head)
	desiredDef := c.ResolvedDef
	desiredHash := models.HashDefinition(desiredDef)

	if desiredHash == currentHash {
		return nil, nil // target already matches the resolution
	}
	return &models.HistoryEntry{
		ObjectID:   c.ObjectID,
		BranchID:   targetBranchID,
		ChangeType: models.ChangeMerge,
		BeforeHash: currentHash,
		BeforeDef:  currentDef,
		AfterHash:  desiredHash,
		AfterDef:   desiredDef,
		Author:     author,
		Timestamp:  now,
	}, nil
}

func mergeAuthor(op *models.MergeOperation) string {
	if op.Author != "" {
		return op.Author
	}
	return "merge:" + op.ID[:8]
}

func mergeResult(op *models.MergeOperation, conflicts []*models.Conflict) *models.MergeResult {
	result := &models.MergeResult{
		MergeID:           op.ID,
		Status:            op.Status,
		ConflictsDetected: op.ConflictsDetected,
		ConflictsResolved: op.ConflictsResolved,
		ResultCommit:      op.ResultCommit,
	}
	for _, c := range conflicts {
		if c.Type == models.BothModified {
			result.Conflicts = append(result.Conflicts, c)
		}
	}
	return result
}
