package core

import (
	"context"
	"fmt"

	"github.com/evoludigit/pggit/internal/ddl"
	"github.com/evoludigit/pggit/internal/models"
)

// ResolveConflict records a manual resolution for one conflicted object of
// an open merge. CUSTOM definitions must pass a dry, non-executing parse
// before anything is recorded. When the last conflict is resolved the merge
// auto-finalizes to SUCCESS and writes the result commit.
func (e *Engine) ResolveConflict(ctx context.Context, mergeID, objectID string, choice models.ResolutionChoice, customDefinition string) (*models.MergeResult, error) {
	op, err := e.store.GetMergeOperation(mergeID)
	if err != nil {
		return nil, notFound(err, "merge", mergeID)
	}
	if op.Status != models.MergeConflict {
		return nil, fmt.Errorf("merge %s is %s; only CONFLICT merges accept resolutions", mergeID, op.Status)
	}

	unlock := e.lockBranches(op.SourceBranch, op.TargetBranch)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conflicts, err := e.store.GetConflicts(mergeID)
	if err != nil {
		return nil, err
	}
	var conflict *models.Conflict
	for _, c := range conflicts {
		if c.ObjectID == objectID {
			conflict = c
			break
		}
	}
	if conflict == nil {
		return nil, NotFoundError("conflict for object", objectID)
	}
	if conflict.Resolved {
		return nil, fmt.Errorf("conflict for %s is already resolved", conflict.ObjectName)
	}

	var resolvedDef string
	switch choice {
	case models.ResolveSource:
		resolvedDef = conflict.SourceDef
	case models.ResolveTarget:
		resolvedDef = conflict.TargetDef
	case models.ResolveCustom:
		if err := ddl.CheckSyntax(customDefinition); err != nil {
			return nil, &CustomDefinitionSyntaxError{ObjectID: objectID, Cause: err}
		}
		resolvedDef = customDefinition
	default:
		return nil, fmt.Errorf("unknown resolution choice %q", choice)
	}

	if err := e.store.ResolveConflictRecord(nil, mergeID, objectID, choice, resolvedDef); err != nil {
		return nil, err
	}
	conflict.Resolved = true
	conflict.Resolution = choice
	conflict.ResolvedDef = resolvedDef
	op.ConflictsResolved++

	e.log.Info().
		Str("merge_id", mergeID).
		Str("object", conflict.ObjectName).
		Str("choice", string(choice)).
		Int("resolved", op.ConflictsResolved).
		Int("detected", op.ConflictsDetected).
		Msg("conflict resolved")

	if op.ConflictsResolved >= op.ConflictsDetected {
		return e.finalizeMerge(op, conflicts)
	}

	if err := e.store.UpdateMergeOperation(nil, op); err != nil {
		return nil, err
	}
	return mergeResult(op, conflicts), nil
}

// FinalizeMerge finalizes an open merge explicitly. It fails with
// UnresolvedConflictError while conflicts remain.
func (e *Engine) FinalizeMerge(ctx context.Context, mergeID string) (*models.MergeResult, error) {
	op, err := e.store.GetMergeOperation(mergeID)
	if err != nil {
		return nil, notFound(err, "merge", mergeID)
	}
	if op.Status != models.MergeConflict {
		return nil, fmt.Errorf("merge %s is %s; nothing to finalize", mergeID, op.Status)
	}
	if remaining := op.ConflictsDetected - op.ConflictsResolved; remaining > 0 {
		return nil, &UnresolvedConflictError{MergeID: mergeID, Unresolved: remaining}
	}

	unlock := e.lockBranches(op.SourceBranch, op.TargetBranch)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conflicts, err := e.store.GetConflicts(mergeID)
	if err != nil {
		return nil, err
	}
	return e.finalizeMerge(op, conflicts)
}
