package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// BranchNotExistError is returned when a time-travel target predates the
// branch's creation. An empty snapshot would be misleading there.
type BranchNotExistError struct {
	Branch string
	At     time.Time
}

func (e *BranchNotExistError) Error() string {
	return fmt.Sprintf("branch %s did not exist at %s", e.Branch, e.At.Format(time.RFC3339))
}

// Point is one reference point for diffing: a branch at a timestamp, or the
// branch head when At is zero.
type Point struct {
	BranchID string
	At       time.Time // zero = HEAD
}

// StateAt reconstructs the schema of a branch as it existed at the given
// instant. Objects without local history are inherited from ancestor
// branches, capped at each fork's creation time so later parent changes do
// not leak in. Read-only; takes no lock.
func (e *Engine) StateAt(branchRef string, at time.Time) ([]*models.ObjectSnapshot, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	if at.Before(branch.CreatedAt) {
		return nil, &BranchNotExistError{Branch: branch.Name, At: at}
	}

	state, err := e.stateAt(branch, at)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*models.ObjectSnapshot, 0, len(state))
	for objectID, entry := range state {
		obj, err := e.store.GetObject(objectID)
		if err != nil {
			return nil, notFound(err, "object", objectID)
		}
		snapshots = append(snapshots, &models.ObjectSnapshot{
			ObjectID:    objectID,
			Type:        obj.Type,
			Schema:      obj.Schema,
			Name:        obj.Name,
			Definition:  entry.AfterDef,
			ContentHash: entry.AfterHash,
			AsOf:        at,
			BranchID:    branch.ID,
		})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Schema != snapshots[j].Schema {
			return snapshots[i].Schema < snapshots[j].Schema
		}
		return snapshots[i].Name < snapshots[j].Name
	})
	return snapshots, nil
}

// stateAt replays the ledger and returns the latest active entry per object.
// An entry with an empty after hash (a drop) removes the object from the
// state. At zero means the branch head.
func (e *Engine) stateAt(branch *models.Branch, at time.Time) (map[string]*models.HistoryEntry, error) {
	chain, err := e.ancestorChain(branch)
	if err != nil {
		return nil, err
	}

	// Cap each ancestor's history at the fork point below it
	caps := make([]time.Time, len(chain))
	caps[0] = at
	for i := 1; i < len(chain); i++ {
		fork := chain[i-1].CreatedAt
		if caps[i-1].IsZero() || (!fork.IsZero() && fork.Before(caps[i-1])) {
			caps[i] = fork
		} else {
			caps[i] = caps[i-1]
		}
	}

	state := make(map[string]*models.HistoryEntry)
	// Replay root first so nearer branches override inherited state
	for i := len(chain) - 1; i >= 0; i-- {
		cutoff := caps[i]
		if cutoff.IsZero() {
			cutoff = farFuture
		}
		entries, err := e.store.GetBranchEntriesUpTo(chain[i].ID, cutoff)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.AfterHash == "" {
				delete(state, entry.ObjectID)
				continue
			}
			state[entry.ObjectID] = entry
		}
	}
	return state, nil
}

// stateAtPoint resolves a Point and reconstructs its state
func (e *Engine) stateAtPoint(p Point) (map[string]*models.HistoryEntry, error) {
	branch, err := e.store.ResolveBranch(p.BranchID)
	if err != nil {
		return nil, notFound(err, "branch", p.BranchID)
	}
	return e.stateAt(branch, p.At)
}

// farFuture stands in for "HEAD" when replaying without a time bound
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
