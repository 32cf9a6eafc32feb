package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
)

func TestMergeBranches_IndependentChangeAppliesUnderEveryStrategy(t *testing.T) {
	// Source adds a column, target untouched: no conflict exists, so even
	// ABORT_ON_CONFLICT merges cleanly.
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	newDef := usersDef("id integer, name text, email text")
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, newDef, at(15))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyAbortOnConflict,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, result.Status)
	assert.Equal(t, 0, result.ConflictsDetected)
	assert.Equal(t, 1, result.ObjectsMerged)
	assert.NotEmpty(t, result.ResultCommit)

	// Target now carries the source definition
	assert.Equal(t, models.HashDefinition(newDef), headHash(t, e, main, "public.users"))

	// Source branch is marked merged
	merged, err := e.Store().GetBranch(feature.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BranchMerged, merged.Status)
}

func TestMergeBranches_AbortOnConflictChangesNothing(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, full_name text"), at(16))

	before, err := e.Store().CountEntries()
	require.NoError(t, err)
	targetHash := headHash(t, e, main, "public.users")

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyAbortOnConflict,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeAborted, result.Status)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.Equal(t, 0, result.ObjectsMerged)
	assert.Empty(t, result.ResultCommit)

	// Nothing was appended and the target is untouched
	after, err := e.Store().CountEntries()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, targetHash, headHash(t, e, main, "public.users"))
}

func TestMergeBranches_TargetWins(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	targetDef := usersDef("id integer, full_name text")
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, targetDef, at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyTargetWins,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, result.Status)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.Equal(t, 1, result.ConflictsResolved)
	assert.Equal(t, models.HashDefinition(targetDef), headHash(t, e, main, "public.users"))
}

func TestMergeBranches_SourceWins(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	sourceDef := usersDef("id integer")
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, sourceDef, at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, full_name text"), at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategySourceWins,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, result.Status)
	assert.Equal(t, models.HashDefinition(sourceDef), headHash(t, e, main, "public.users"))
}

func TestMergeBranches_UnionCombinesDisjointColumns(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name text, email text"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name text, age integer"), at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyUnion,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, result.Status)

	entry, err := e.Store().LatestEntry(main.ID, "public.users")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Contains(t, entry.AfterDef, "email")
	assert.Contains(t, entry.AfterDef, "age")
}

func TestMergeBranches_UnionFallsBackToConflictOnOverlap(t *testing.T) {
	// Both sides change the same column differently; union cannot decide
	// and must leave the conflict open rather than guess.
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name varchar(50)"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name varchar(100)"), at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyUnion,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeConflict, result.Status)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.Equal(t, 0, result.ConflictsResolved)
}

func TestAbortMergeClearsPendingOperation(t *testing.T) {
	// A merge whose finalization fails must not stay PENDING in the store.
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	op := &models.MergeOperation{
		ID:           "merge-finalize-failed",
		SourceBranch: feature.ID,
		TargetBranch: main.ID,
		Strategy:     models.StrategyTargetWins,
		Status:       models.MergePending,
		Author:       "tester",
		StartedAt:    at(20),
	}
	require.NoError(t, e.Store().CreateMergeOperation(op))

	e.abortMerge(op)

	stored, err := e.Store().GetMergeOperation(op.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MergeAborted, stored.Status)
	assert.False(t, stored.FinishedAt.IsZero())
}

func TestMergeBranches_UnionLeavesDivergedIndexesToManualReview(t *testing.T) {
	// An index has no disjoint parts to combine, so two diverged
	// definitions always stay an open conflict under UNION.
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)
	_ = main

	record(t, e, main, "public.idx_users_name", models.ObjectIndex, models.ChangeCreate,
		"CREATE INDEX idx_users_name ON users (name)", at(11))
	record(t, e, feature, "public.idx_users_name", models.ObjectIndex, models.ChangeCreate,
		"CREATE UNIQUE INDEX idx_users_name ON users (name)", at(15))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyUnion,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeConflict, result.Status)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.Equal(t, 0, result.ConflictsResolved)
}

func TestMergeBranches_ManualReviewThenResolve(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	targetDef := usersDef("id integer, full_name text")
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, targetDef, at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyManualReview,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MergeConflict, result.Status)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.Equal(t, 0, result.ConflictsResolved)

	resolved, err := e.ResolveConflict(context.Background(), result.MergeID, "public.users", models.ResolveTarget, "")
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, resolved.Status)
	assert.Equal(t, 1, resolved.ConflictsResolved)
	assert.Equal(t, models.HashDefinition(targetDef), headHash(t, e, main, "public.users"))
}

func TestResolveConflict_CustomMustParse(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)
	_ = main

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, full_name text"), at(16))

	result, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: models.StrategyManualReview,
	})
	require.NoError(t, err)

	// Broken DDL is rejected before any state change
	_, err = e.ResolveConflict(context.Background(), result.MergeID, "public.users", models.ResolveCustom, "NOT EVEN SQL")
	require.Error(t, err)
	var syntaxErr *CustomDefinitionSyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	op, err := e.Store().GetMergeOperation(result.MergeID)
	require.NoError(t, err)
	assert.Equal(t, models.MergeConflict, op.Status)
	assert.Equal(t, 0, op.ConflictsResolved)

	// A valid custom definition finalizes the merge
	custom := usersDef("id integer, full_name text, note text")
	resolved, err := e.ResolveConflict(context.Background(), result.MergeID, "public.users", models.ResolveCustom, custom)
	require.NoError(t, err)
	assert.Equal(t, models.MergeSuccess, resolved.Status)
}

func TestMergeBranches_SelfMergeRejected(t *testing.T) {
	e := newTestEngine(t)
	makeBranch(t, e, "main", nil, at(0))

	_, err := e.MergeBranches(context.Background(), "main", "main", MergeOptions{})
	assert.Error(t, err)
}

func TestMergeBranches_UnknownStrategyRejected(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))
	makeBranch(t, e, "feature", main, at(10))

	_, err := e.MergeBranches(context.Background(), "feature", "main", MergeOptions{
		Strategy: "FAST_FORWARD",
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "strategy"))
}

// No operation in the engine ever rewrites history: entry counts only grow,
// and merge results append MERGE entries instead of touching old ones.
func TestMerge_AppendOnlyLedger(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name text, email text"), at(15))

	before, err := e.Store().CountEntries()
	require.NoError(t, err)

	_, err = e.MergeBranches(context.Background(), "feature", "main", MergeOptions{})
	require.NoError(t, err)

	after, err := e.Store().CountEntries()
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	// The source branch history still holds its original entries
	entries, err := e.Store().GetObjectHistory(feature.ID, "public.users")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	last, err := e.Store().LatestEntry(main.ID, "public.users")
	require.NoError(t, err)
	assert.Equal(t, models.ChangeMerge, last.ChangeType)
}
