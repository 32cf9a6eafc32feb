package core

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
	"github.com/evoludigit/pggit/internal/store"
)

// t0 anchors every test timeline; offsets are whole minutes.
var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })
	return New(st, zerolog.Nop())
}

func makeBranch(t *testing.T, e *Engine, name string, parent *models.Branch, created time.Time) *models.Branch {
	t.Helper()
	b := &models.Branch{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    models.BranchActive,
		CreatedAt: created,
	}
	if parent != nil {
		b.ParentID = parent.ID
		b.HeadCommit = parent.HeadCommit
	}
	require.NoError(t, e.Store().CreateBranch(b))
	return b
}

// record appends one change through the ingestion path and returns its commit.
// The before image is looked up from the ledger so chained changes stay valid.
func record(t *testing.T, e *Engine, branch *models.Branch, objectID string, objType models.ObjectType, changeType models.ChangeType, afterDef string, ts time.Time) *models.Commit {
	t.Helper()

	var beforeDef string
	prior, err := e.Store().LatestEntry(branch.ID, objectID)
	require.NoError(t, err)
	if prior != nil {
		beforeDef = prior.AfterDef
	}

	schema, name := "public", objectID
	if i := len("public."); len(objectID) > i && objectID[:i] == "public." {
		name = objectID[i:]
	}

	commit, err := e.RecordChange(context.Background(), &models.ObjectChangeEvent{
		ObjectID:   objectID,
		Schema:     schema,
		Name:       name,
		Type:       objType,
		ChangeType: changeType,
		BeforeDef:  beforeDef,
		AfterDef:   afterDef,
		BranchID:   branch.ID,
		Author:     "test",
		Timestamp:  ts,
	})
	require.NoError(t, err)

	// Keep the in-memory branch in step with the store.
	fresh, err := e.Store().GetBranch(branch.ID)
	require.NoError(t, err)
	branch.HeadCommit = fresh.HeadCommit
	return commit
}

func recordDrop(t *testing.T, e *Engine, branch *models.Branch, objectID string, objType models.ObjectType, ts time.Time) *models.Commit {
	t.Helper()
	return record(t, e, branch, objectID, objType, models.ChangeDrop, "", ts)
}

func addEdge(t *testing.T, e *Engine, sourceID, targetID string, depType models.DependencyType, strength models.DependencyStrength) {
	t.Helper()
	require.NoError(t, e.Store().AddDependency(&models.DependencyEdge{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     depType,
		Strength: strength,
	}))
}

func headHash(t *testing.T, e *Engine, branch *models.Branch, objectID string) string {
	t.Helper()
	entry, err := e.Store().LatestEntry(branch.ID, objectID)
	require.NoError(t, err)
	if entry == nil {
		return ""
	}
	return entry.AfterHash
}

func usersDef(cols string) string {
	return fmt.Sprintf("CREATE TABLE users (%s)", cols)
}
