package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// plannedChange pairs a caller-visible planned operation with the hashes the
// executor needs for verification. expectedHash is taken from the recorded
// history hashes, not recomputed, so a definition/hash drift in the ledger is
// caught at verification time.
type plannedChange struct {
	op           *models.PlannedOperation
	expectedHash string // hash the object must carry after the inverse ("" = gone)
	currentHash  string // hash the object carries before the inverse ("" = absent)
	lastTS       time.Time
}

// effectiveKind maps any ledger entry, including MERGE and ROLLBACK entries,
// onto the create/alter/drop shape its before/after fields describe.
func effectiveKind(e *models.HistoryEntry) models.ChangeType {
	switch {
	case e.AfterHash == "":
		return models.ChangeDrop
	case e.BeforeHash == "":
		return models.ChangeCreate
	default:
		return models.ChangeAlter
	}
}

// buildPlan computes one net inverse operation per object touched by the
// given chronological entries. Collapsing rules for an object changed more
// than once inside the range:
//
//	CREATE then DROP        -> no operation
//	CREATE then ALTER...    -> restore the as-created definition
//	ALTER then ALTER...     -> single ALTER back to the first before-image
//	anything after a DROP   -> planning error
func (e *Engine) buildPlan(entries []*models.HistoryEntry, order models.RangeOrder) ([]*plannedChange, error) {
	byObject := make(map[string][]*models.HistoryEntry)
	var objectIDs []string
	for _, entry := range entries {
		if _, seen := byObject[entry.ObjectID]; !seen {
			objectIDs = append(objectIDs, entry.ObjectID)
		}
		byObject[entry.ObjectID] = append(byObject[entry.ObjectID], entry)
	}

	changes := make([]*plannedChange, 0, len(objectIDs))
	for _, objectID := range objectIDs {
		change, err := e.collapseObject(objectID, byObject[objectID])
		if err != nil {
			return nil, err
		}
		if change != nil {
			changes = append(changes, change)
		}
	}

	return e.orderPlan(changes, order)
}

func (e *Engine) collapseObject(objectID string, entries []*models.HistoryEntry) (*plannedChange, error) {
	obj, err := e.store.GetObject(objectID)
	if err != nil {
		return nil, notFound(err, "object", objectID)
	}

	first, last := entries[0], entries[len(entries)-1]
	for i, entry := range entries {
		if i > 0 && effectiveKind(entries[i-1]) == models.ChangeDrop {
			return nil, fmt.Errorf("planning %s: entry %d follows a DROP inside the range", obj.QualifiedName(), entry.ID)
		}
	}

	change := &plannedChange{
		op: &models.PlannedOperation{
			ObjectID:   objectID,
			ObjectName: obj.QualifiedName(),
			ObjectType: obj.Type,
		},
		currentHash: last.AfterHash,
		lastTS:      last.Timestamp,
	}

	firstKind, lastKind := effectiveKind(first), effectiveKind(last)
	switch {
	case firstKind == models.ChangeCreate && lastKind == models.ChangeDrop:
		// Created and dropped inside the range: nothing to undo.
		return nil, nil
	case firstKind == models.ChangeCreate && len(entries) == 1:
		// Undo a lone creation by dropping it.
		change.op.ChangeType = models.ChangeDrop
		change.op.BeforeDef = last.AfterDef
		change.expectedHash = ""
	case firstKind == models.ChangeCreate:
		// Created then altered: restore the as-created definition.
		change.op.ChangeType = models.ChangeCreate
		change.op.BeforeDef = last.AfterDef
		change.op.AfterDef = first.AfterDef
		change.expectedHash = first.AfterHash
	case lastKind == models.ChangeDrop:
		// Existed before the range and was dropped: recreate the pre-range
		// definition.
		change.op.ChangeType = models.ChangeCreate
		change.op.AfterDef = first.BeforeDef
		change.expectedHash = first.BeforeHash
	default:
		// One or more alterations: single ALTER back to the first
		// before-image.
		change.op.ChangeType = models.ChangeAlter
		change.op.BeforeDef = last.AfterDef
		change.op.AfterDef = first.BeforeDef
		change.expectedHash = first.BeforeHash
	}
	return change, nil
}

// orderPlan sequences the collapsed operations. Dependency order applies the
// graph: restorations run parents before children, then alterations, then
// drops children before parents. Reverse chronological order undoes changes
// newest first.
func (e *Engine) orderPlan(changes []*plannedChange, order models.RangeOrder) ([]*plannedChange, error) {
	if order == models.OrderReverseChronological {
		sort.Slice(changes, func(i, j int) bool {
			return changes[i].lastTS.After(changes[j].lastTS)
		})
		return changes, nil
	}

	graph, err := e.loadGraph()
	if err != nil {
		return nil, err
	}

	byKind := map[models.ChangeType][]*plannedChange{}
	byID := make(map[string]*plannedChange, len(changes))
	for _, c := range changes {
		byKind[c.op.ChangeType] = append(byKind[c.op.ChangeType], c)
		byID[c.op.ObjectID] = c
	}

	ordered := make([]*plannedChange, 0, len(changes))
	appendTopo := func(group []*plannedChange, reversed bool) error {
		ids := make([]string, len(group))
		for i, c := range group {
			ids[i] = c.op.ObjectID
		}
		sorted, err := graph.topoOrder(ids)
		if err != nil {
			return err
		}
		if reversed {
			for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
		for _, id := range sorted {
			ordered = append(ordered, byID[id])
		}
		return nil
	}

	if err := appendTopo(byKind[models.ChangeCreate], false); err != nil {
		return nil, err
	}
	alters := byKind[models.ChangeAlter]
	sort.Slice(alters, func(i, j int) bool { return alters[i].op.ObjectName < alters[j].op.ObjectName })
	ordered = append(ordered, alters...)
	if err := appendTopo(byKind[models.ChangeDrop], true); err != nil {
		return nil, err
	}
	return ordered, nil
}

func planOperations(changes []*plannedChange) []*models.PlannedOperation {
	ops := make([]*models.PlannedOperation, len(changes))
	for i, c := range changes {
		ops[i] = c.op
	}
	return ops
}

// rollbackScope is the resolved input of one rollback call: the branch and
// the chronological slice of ledger entries the call would invert.
type rollbackScope struct {
	branch       *models.Branch
	sourceCommit string
	targetCommit string
	rbType       models.RollbackType
	entries      []*models.HistoryEntry
}

// scopeForCommit targets the entries of exactly one commit.
func (e *Engine) scopeForCommit(branchRef, commitRef string) (*rollbackScope, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	commit, err := e.store.ResolveCommit(commitRef)
	if err != nil {
		return nil, notFound(err, "commit", commitRef)
	}
	if commit.BranchID != branch.ID {
		return nil, fmt.Errorf("commit %s belongs to branch %s, not %s", commit.ShortHash(), commit.BranchID, branch.Name)
	}
	entries, err := e.store.GetEntriesByCommit(commit.Hash)
	if err != nil {
		return nil, err
	}
	return &rollbackScope{
		branch:       branch,
		sourceCommit: commit.Hash,
		rbType:       models.RollbackSingleCommit,
		entries:      entries,
	}, nil
}

// scopeForRange targets every entry between two commits, inclusive.
func (e *Engine) scopeForRange(branchRef, startRef, endRef string) (*rollbackScope, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	start, err := e.store.ResolveCommit(startRef)
	if err != nil {
		return nil, notFound(err, "commit", startRef)
	}
	end, err := e.store.ResolveCommit(endRef)
	if err != nil {
		return nil, notFound(err, "commit", endRef)
	}
	if start.BranchID != branch.ID || end.BranchID != branch.ID {
		return nil, fmt.Errorf("range commits must both belong to branch %s", branch.Name)
	}
	if end.Timestamp.Before(start.Timestamp) {
		start, end = end, start
	}
	entries, err := e.store.GetBranchEntriesBetween(branch.ID, start.Timestamp, end.Timestamp)
	if err != nil {
		return nil, err
	}
	return &rollbackScope{
		branch:       branch,
		sourceCommit: end.Hash,
		targetCommit: start.Hash,
		rbType:       models.RollbackRange,
		entries:      entries,
	}, nil
}

// scopeForTimestamp targets every entry recorded after the given instant.
func (e *Engine) scopeForTimestamp(branchRef string, ts time.Time) (*rollbackScope, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	if ts.Before(branch.CreatedAt) {
		return nil, &BranchNotExistError{Branch: branch.Name, At: ts}
	}
	all, err := e.store.GetBranchEntriesBetween(branch.ID, ts, farFuture)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.HistoryEntry, 0, len(all))
	for _, entry := range all {
		if entry.Timestamp.After(ts) {
			entries = append(entries, entry)
		}
	}
	return &rollbackScope{
		branch:       branch,
		sourceCommit: branch.HeadCommit,
		rbType:       models.RollbackToTimestamp,
		entries:      entries,
	}, nil
}
