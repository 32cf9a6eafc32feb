package core

import (
	"sort"

	"github.com/evoludigit/pggit/internal/models"
)

// Diff compares two reference points and classifies every object known at
// either point as UNCHANGED, ADDED, REMOVED, or MODIFIED. This two-point
// diff is the primitive under both merge (base-source, base-target,
// source-target) and rollback verification (current-historical).
// Read-only; takes no lock.
func (e *Engine) Diff(a, b Point) ([]*models.ObjectDelta, error) {
	stateA, err := e.stateAtPoint(a)
	if err != nil {
		return nil, err
	}
	stateB, err := e.stateAtPoint(b)
	if err != nil {
		return nil, err
	}
	return e.diffStates(stateA, stateB)
}

// diffStates compares two reconstructed states by content hash
func (e *Engine) diffStates(stateA, stateB map[string]*models.HistoryEntry) ([]*models.ObjectDelta, error) {
	ids := make(map[string]bool, len(stateA)+len(stateB))
	for id := range stateA {
		ids[id] = true
	}
	for id := range stateB {
		ids[id] = true
	}

	deltas := make([]*models.ObjectDelta, 0, len(ids))
	for id := range ids {
		entryA := stateA[id]
		entryB := stateB[id]

		obj, err := e.store.GetObject(id)
		if err != nil {
			return nil, notFound(err, "object", id)
		}

		delta := &models.ObjectDelta{
			ObjectID:   id,
			ObjectName: obj.QualifiedName(),
			ObjectType: obj.Type,
		}
		switch {
		case entryA == nil:
			delta.Kind = models.DeltaAdded
			delta.HashB = entryB.AfterHash
			delta.DefB = entryB.AfterDef
		case entryB == nil:
			delta.Kind = models.DeltaRemoved
			delta.HashA = entryA.AfterHash
			delta.DefA = entryA.AfterDef
		case entryA.AfterHash == entryB.AfterHash:
			delta.Kind = models.DeltaUnchanged
			delta.HashA = entryA.AfterHash
			delta.HashB = entryB.AfterHash
		default:
			delta.Kind = models.DeltaModified
			delta.HashA = entryA.AfterHash
			delta.HashB = entryB.AfterHash
			delta.DefA = entryA.AfterDef
			delta.DefB = entryB.AfterDef
		}
		deltas = append(deltas, delta)
	}

	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].ObjectName < deltas[j].ObjectName
	})
	return deltas, nil
}
