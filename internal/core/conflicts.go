package core

import (
	"sort"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// threeWayState bundles the reconstructed states used for classification
type threeWayState struct {
	base   map[string]*models.HistoryEntry
	source map[string]*models.HistoryEntry
	target map[string]*models.HistoryEntry
}

// DetectMergeConflicts classifies every object present at base, source, or
// target and returns the items that require any merge action (everything
// except NO_CONFLICT). Read-only; takes no lock.
func (e *Engine) DetectMergeConflicts(sourceRef, targetRef, baseRef string) ([]*models.Conflict, error) {
	source, err := e.store.ResolveBranch(sourceRef)
	if err != nil {
		return nil, notFound(err, "branch", sourceRef)
	}
	target, err := e.store.ResolveBranch(targetRef)
	if err != nil {
		return nil, notFound(err, "branch", targetRef)
	}

	states, _, err := e.threeWayStates(source, target, baseRef)
	if err != nil {
		return nil, err
	}
	return e.classifyStates(states)
}

// threeWayStates reconstructs base, source, and target states. The base
// state is the merge-base branch at the earliest fork point of the two
// sides, so changes made on the base after the fork count as modifications,
// not shared history. A caller-supplied base branch is used at its head.
func (e *Engine) threeWayStates(source, target *models.Branch, baseRef string) (*threeWayState, *models.Branch, error) {
	states := &threeWayState{}

	var err error
	states.source, err = e.stateAt(source, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	states.target, err = e.stateAt(target, time.Time{})
	if err != nil {
		return nil, nil, err
	}

	if baseRef != "" {
		base, err := e.store.ResolveBranch(baseRef)
		if err != nil {
			return nil, nil, notFound(err, "branch", baseRef)
		}
		states.base, err = e.stateAt(base, time.Time{})
		return states, base, err
	}

	mb, err := e.FindMergeBase(source.ID, target.ID)
	if err != nil {
		return nil, nil, err
	}
	if mb.Unrelated() {
		// No shared history: every object is an add on its own side
		states.base = map[string]*models.HistoryEntry{}
		return states, mb.Base, nil
	}

	at := time.Time{}
	for _, side := range []*models.Branch{source, target} {
		fork, err := e.forkTime(side, mb.Base)
		if err != nil {
			return nil, nil, err
		}
		if !fork.IsZero() && (at.IsZero() || fork.Before(at)) {
			at = fork
		}
	}
	states.base, err = e.stateAt(mb.Base, at)
	return states, mb.Base, err
}

// forkTime returns when branch diverged from ancestor: the creation time of
// the first branch after the ancestor on branch's chain. Zero if branch is
// the ancestor itself.
func (e *Engine) forkTime(branch, ancestor *models.Branch) (time.Time, error) {
	if branch.ID == ancestor.ID {
		return time.Time{}, nil
	}
	chain, err := e.ancestorChain(branch)
	if err != nil {
		return time.Time{}, err
	}
	for _, b := range chain {
		if b.ParentID == ancestor.ID {
			return b.CreatedAt, nil
		}
	}
	return branch.CreatedAt, nil
}

// classifyStates applies the three-way classification table to every object
// and returns the non-NO_CONFLICT items, severity graded.
func (e *Engine) classifyStates(states *threeWayState) ([]*models.Conflict, error) {
	ids := make(map[string]bool)
	for id := range states.base {
		ids[id] = true
	}
	for id := range states.source {
		ids[id] = true
	}
	for id := range states.target {
		ids[id] = true
	}

	var conflicts []*models.Conflict
	for id := range ids {
		c, err := e.classifyObject(id, states.base[id], states.source[id], states.target[id])
		if err != nil {
			return nil, err
		}
		if c.Type == models.NoConflict {
			continue
		}
		conflicts = append(conflicts, c)
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].ObjectName < conflicts[j].ObjectName
	})
	return conflicts, nil
}

// classifyObject assigns exactly one classification to one object. A
// deletion on one side plus a non-identical change on the other is always
// BOTH_MODIFIED so deletions cannot be silently lost.
func (e *Engine) classifyObject(id string, base, source, target *models.HistoryEntry) (*models.Conflict, error) {
	obj, err := e.store.GetObject(id)
	if err != nil {
		return nil, notFound(err, "object", id)
	}

	c := &models.Conflict{
		ObjectID:   id,
		ObjectType: obj.Type,
		ObjectName: obj.QualifiedName(),
	}
	baseHash := entryHash(base)
	sourceHash := entryHash(source)
	targetHash := entryHash(target)
	c.BaseHash, c.BaseDef = baseHash, entryDef(base)
	c.SourceHash, c.SourceDef = sourceHash, entryDef(source)
	c.TargetHash, c.TargetDef = targetHash, entryDef(target)

	switch {
	case sourceHash == targetHash:
		// Unchanged everywhere, identical change, or identical add/drop
		c.Type = models.NoConflict
	case sourceHash == baseHash:
		if targetHash == "" {
			c.Type = models.DeletedTarget
		} else {
			c.Type = models.TargetModified
		}
	case targetHash == baseHash:
		if sourceHash == "" {
			c.Type = models.DeletedSource
		} else {
			c.Type = models.SourceModified
		}
	default:
		// Diverging changes, diverging adds, or delete vs modify
		c.Type = models.BothModified
	}

	c.AutoResolvable = c.Type.AutoResolvable()
	if err := e.gradeConflict(c); err != nil {
		return nil, err
	}
	return c, nil
}

// gradeConflict assigns severity: MAJOR for depended-on TABLE/FUNCTION/VIEW
// drops, MINOR for TRIGGER/INDEX drops, INFO otherwise.
func (e *Engine) gradeConflict(c *models.Conflict) error {
	c.Severity = models.SeverityInfo
	dropped := c.SourceHash == "" || c.TargetHash == ""
	if !dropped || c.Type == models.NoConflict {
		return nil
	}

	switch c.ObjectType {
	case models.ObjectTrigger, models.ObjectIndex:
		c.Severity = models.SeverityMinor
	case models.ObjectTable, models.ObjectFunction, models.ObjectView:
		dependents, err := e.store.GetDependents(c.ObjectID)
		if err != nil {
			return err
		}
		if len(dependents) > 0 {
			c.Severity = models.SeverityMajor
		}
	}
	return nil
}

func entryHash(entry *models.HistoryEntry) string {
	if entry == nil {
		return ""
	}
	return entry.AfterHash
}

func entryDef(entry *models.HistoryEntry) string {
	if entry == nil {
		return ""
	}
	return entry.AfterDef
}
