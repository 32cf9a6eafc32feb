package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func testBranch(t *testing.T, s *Store, id, name, parentID string) *models.Branch {
	t.Helper()
	b := &models.Branch{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		Status:    models.BranchActive,
		CreatedAt: testTime,
	}
	require.NoError(t, s.CreateBranch(b))
	return b
}

func TestBranchRoundTrip(t *testing.T) {
	s := newTestStore(t)

	testBranch(t, s, "b1", "main", "")
	testBranch(t, s, "b2", "feature", "b1")

	byID, err := s.GetBranch("b2")
	require.NoError(t, err)
	assert.Equal(t, "feature", byID.Name)
	assert.Equal(t, "b1", byID.ParentID)
	assert.Equal(t, models.BranchActive, byID.Status)
	assert.True(t, byID.CreatedAt.Equal(testTime))

	byName, err := s.GetBranchByName("feature")
	require.NoError(t, err)
	assert.Equal(t, "b2", byName.ID)

	// ResolveBranch accepts either form
	resolved, err := s.ResolveBranch("feature")
	require.NoError(t, err)
	assert.Equal(t, "b2", resolved.ID)
	resolved, err = s.ResolveBranch("b2")
	require.NoError(t, err)
	assert.Equal(t, "feature", resolved.Name)
}

func TestGetRootBranch(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")
	testBranch(t, s, "b2", "feature", "b1")

	root, err := s.GetRootBranch()
	require.NoError(t, err)
	assert.Equal(t, "b1", root.ID)
}

func TestUpdateBranchStatusAndHead(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")

	require.NoError(t, s.UpdateBranchStatus(s.DB(), "b1", models.BranchMerged))
	require.NoError(t, s.UpdateBranchHead(s.DB(), "b1", "abc123"))

	b, err := s.GetBranch("b1")
	require.NoError(t, err)
	assert.Equal(t, models.BranchMerged, b.Status)
	assert.Equal(t, "abc123", b.HeadCommit)

	// Unknown branch errors instead of silently matching zero rows
	assert.Error(t, s.UpdateBranchStatus(s.DB(), "nope", models.BranchActive))
}

func TestCommitLogAndResolve(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")

	for i, hash := range []string{"aaaa1111bbbb", "cccc2222dddd", "eeee3333ffff"} {
		require.NoError(t, s.CreateCommit(nil, &models.Commit{
			Hash:      hash,
			BranchID:  "b1",
			Message:   "change",
			Timestamp: testTime.Add(time.Duration(i) * time.Minute),
		}))
	}

	log, err := s.GetCommitLog("b1", 0)
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, "eeee3333ffff", log[0].Hash) // newest first

	log, err = s.GetCommitLog("b1", 2)
	require.NoError(t, err)
	assert.Len(t, log, 2)

	// Short hash resolution
	c, err := s.ResolveCommit("cccc2222")
	require.NoError(t, err)
	assert.Equal(t, "cccc2222dddd", c.Hash)
}

func TestAppendEntryMaintainsHeadIndex(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")

	e1 := &models.HistoryEntry{
		ObjectID:   "public.users",
		BranchID:   "b1",
		ChangeType: models.ChangeCreate,
		AfterHash:  "h1",
		AfterDef:   "CREATE TABLE users (id integer)",
		Author:     "test",
		Timestamp:  testTime,
	}
	require.NoError(t, s.AppendEntry(nil, e1))
	assert.NotZero(t, e1.ID)

	e2 := &models.HistoryEntry{
		ObjectID:   "public.users",
		BranchID:   "b1",
		ChangeType: models.ChangeAlter,
		BeforeHash: "h1",
		AfterHash:  "h2",
		AfterDef:   "CREATE TABLE users (id bigint)",
		Author:     "test",
		Timestamp:  testTime.Add(time.Minute),
	}
	require.NoError(t, s.AppendEntry(nil, e2))
	assert.Greater(t, e2.ID, e1.ID)

	latest, err := s.LatestEntry("b1", "public.users")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "h2", latest.AfterHash)

	// The head index never loses older entries
	history, err := s.GetObjectHistory("b1", "public.users")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	count, err := s.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLatestEntryBefore(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")

	for i, hash := range []string{"h1", "h2", "h3"} {
		require.NoError(t, s.AppendEntry(nil, &models.HistoryEntry{
			ObjectID:   "public.users",
			BranchID:   "b1",
			ChangeType: models.ChangeAlter,
			AfterHash:  hash,
			Author:     "test",
			Timestamp:  testTime.Add(time.Duration(i) * time.Hour),
		}))
	}

	entry, err := s.LatestEntryBefore("b1", "public.users", testTime.Add(90*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "h2", entry.AfterHash)

	entry, err = s.LatestEntryBefore("b1", "public.users", testTime.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDependencies(t *testing.T) {
	s := newTestStore(t)

	edge := &models.DependencyEdge{
		SourceID: "public.orders",
		TargetID: "public.users",
		Type:     models.DepForeignKey,
		Strength: models.DepHard,
	}
	require.NoError(t, s.AddDependency(edge))
	// Upsert: same edge twice stays one row
	require.NoError(t, s.AddDependency(edge))

	dependents, err := s.GetDependents("public.users")
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	assert.Equal(t, "public.orders", dependents[0].SourceID)

	deps, err := s.GetDependencies("public.orders")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "public.users", deps[0].TargetID)
}

func TestMergeOperationPersistence(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")
	testBranch(t, s, "b2", "feature", "b1")

	op := &models.MergeOperation{
		ID:           "merge-1",
		SourceBranch: "b2",
		TargetBranch: "b1",
		MergeBase:    "b1",
		Strategy:     models.StrategyManualReview,
		Status:       models.MergeConflict,
		Author:       "tester",
		StartedAt:    testTime,
	}
	op.ConflictsDetected = 1
	require.NoError(t, s.CreateMergeOperation(op))

	conflicts := []*models.Conflict{{
		ObjectID:   "public.users",
		ObjectType: models.ObjectTable,
		ObjectName: "public.users",
		Type:       models.BothModified,
		Severity:   models.SeverityInfo,
		SourceDef:  "CREATE TABLE users (id integer)",
		TargetDef:  "CREATE TABLE users (id bigint)",
	}}
	require.NoError(t, s.SaveConflicts(nil, op.ID, conflicts))

	require.NoError(t, s.ResolveConflictRecord(nil, op.ID, "public.users", models.ResolveTarget, "CREATE TABLE users (id bigint)"))
	// Resolving an already-resolved conflict fails
	assert.Error(t, s.ResolveConflictRecord(nil, op.ID, "public.users", models.ResolveSource, ""))

	loaded, err := s.GetConflicts(op.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Resolved)
	assert.Equal(t, models.ResolveTarget, loaded[0].Resolution)
	assert.Equal(t, "CREATE TABLE users (id bigint)", loaded[0].ResolvedDef)
}

func TestRollbackOperationPersistence(t *testing.T) {
	s := newTestStore(t)
	testBranch(t, s, "b1", "main", "")

	op := &models.RollbackOperation{
		ID:           "rb-1",
		BranchID:     "b1",
		SourceCommit: "abc",
		Type:         models.RollbackSingleCommit,
		Mode:         models.ModeExecuted,
		Status:       models.RollbackPending,
		StartedAt:    testTime,
	}
	require.NoError(t, s.CreateRollbackOperation(op))

	op.Status = models.RollbackSucceeded
	op.RollbackCommit = "def"
	op.FinishedAt = testTime.Add(time.Minute)
	require.NoError(t, s.UpdateRollbackOperation(nil, op))

	loaded, err := s.GetRollbackOperation("rb-1")
	require.NoError(t, err)
	assert.Equal(t, models.RollbackSucceeded, loaded.Status)
	assert.Equal(t, "def", loaded.RollbackCommit)
}

func TestKeyValue(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetValue("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetValue("schema_version", "1"))
	require.NoError(t, s.SetValue("schema_version", "2"))

	v, err = s.GetValue("schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}
