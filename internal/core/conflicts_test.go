package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
)

// forkFixture builds main with users(id,name) and a feature branch forked
// after that creation.
func forkFixture(t *testing.T, e *Engine) (main, feature *models.Branch) {
	t.Helper()
	main = makeBranch(t, e, "main", nil, at(0))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer, name text"), at(1))
	feature = makeBranch(t, e, "feature", main, at(10))
	return main, feature
}

func TestDetectMergeConflicts_SourceModifiedOnly(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)
	_ = main

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter,
		usersDef("id integer, name text, email text"), at(15))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.SourceModified, conflicts[0].Type)
	assert.True(t, conflicts[0].AutoResolvable)
}

func TestDetectMergeConflicts_IdenticalChangesAreNoConflict(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	def := usersDef("id integer, name text, email text")
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, def, at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, def, at(16))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectMergeConflicts_BothModified(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer"), at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, full_name text"), at(16))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.BothModified, conflicts[0].Type)
	assert.False(t, conflicts[0].AutoResolvable)
}

// A deletion on one side with a modification on the other must never
// auto-resolve, or the deletion would be silently lost.
func TestDetectMergeConflicts_NoLostDeletion(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	recordDrop(t, e, feature, "public.users", models.ObjectTable, at(15))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, full_name text"), at(16))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.BothModified, conflicts[0].Type)
	assert.False(t, conflicts[0].AutoResolvable)
}

func TestDetectMergeConflicts_DeletedSourceOnly(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)
	_ = main

	recordDrop(t, e, feature, "public.users", models.ObjectTable, at(15))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.DeletedSource, conflicts[0].Type)
	assert.True(t, conflicts[0].AutoResolvable)
}

func TestDetectMergeConflicts_SeverityMajorForDependedOnTable(t *testing.T) {
	e := newTestEngine(t)
	main, feature := forkFixture(t, e)

	record(t, e, main, "public.orders", models.ObjectTable, models.ChangeCreate, "CREATE TABLE orders (id integer)", at(2))
	addEdge(t, e, "public.orders", "public.users", models.DepForeignKey, models.DepHard)

	recordDrop(t, e, feature, "public.users", models.ObjectTable, at(15))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)

	var usersConflict *models.Conflict
	for _, c := range conflicts {
		if c.ObjectID == "public.users" {
			usersConflict = c
		}
	}
	require.NotNil(t, usersConflict)
	assert.Equal(t, models.SeverityMajor, usersConflict.Severity)
}

// Every object present at base, source or target lands in exactly one
// classification; objects with no change on either side never surface.
func TestDetectMergeConflicts_ClassificationPartitions(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))
	record(t, e, main, "public.a", models.ObjectTable, models.ChangeCreate, "CREATE TABLE a (id integer)", at(1))
	record(t, e, main, "public.b", models.ObjectTable, models.ChangeCreate, "CREATE TABLE b (id integer)", at(2))
	record(t, e, main, "public.c", models.ObjectTable, models.ChangeCreate, "CREATE TABLE c (id integer)", at(3))
	feature := makeBranch(t, e, "feature", main, at(10))

	// a untouched, b changed on source, c changed on both, d new on source
	record(t, e, feature, "public.b", models.ObjectTable, models.ChangeAlter, "CREATE TABLE b (id integer, x text)", at(11))
	record(t, e, feature, "public.c", models.ObjectTable, models.ChangeAlter, "CREATE TABLE c (id integer, y text)", at(12))
	record(t, e, main, "public.c", models.ObjectTable, models.ChangeAlter, "CREATE TABLE c (id integer, z text)", at(13))
	record(t, e, feature, "public.d", models.ObjectTable, models.ChangeCreate, "CREATE TABLE d (id integer)", at(14))

	conflicts, err := e.DetectMergeConflicts("feature", "main", "")
	require.NoError(t, err)

	types := map[string]models.ConflictType{}
	for _, c := range conflicts {
		_, dup := types[c.ObjectID]
		assert.False(t, dup, "object %s classified twice", c.ObjectID)
		types[c.ObjectID] = c.Type
	}
	assert.NotContains(t, types, "public.a")
	assert.Equal(t, models.SourceModified, types["public.b"])
	assert.Equal(t, models.BothModified, types["public.c"])
	assert.Equal(t, models.SourceModified, types["public.d"])
}
