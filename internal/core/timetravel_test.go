package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
)

func TestStateAt_BeforeBranchCreation(t *testing.T) {
	e := newTestEngine(t)
	makeBranch(t, e, "main", nil, at(10))

	_, err := e.StateAt("main", at(5))
	require.Error(t, err)
	var notExist *BranchNotExistError
	assert.ErrorAs(t, err, &notExist)
	assert.Equal(t, "main", notExist.Branch)
}

func TestStateAt_ReplaysHistory(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))

	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer"), at(1))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, name text"), at(5))

	// Between the two changes the first definition is visible
	snaps, err := e.StateAt("main", at(3))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.HashDefinition(usersDef("id integer")), snaps[0].ContentHash)

	// After both, the altered definition is visible
	snaps, err = e.StateAt("main", at(10))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.HashDefinition(usersDef("id integer, name text")), snaps[0].ContentHash)
}

func TestStateAt_DroppedObjectExcluded(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))

	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer"), at(1))
	recordDrop(t, e, main, "public.users", models.ObjectTable, at(5))

	snaps, err := e.StateAt("main", at(10))
	require.NoError(t, err)
	assert.Empty(t, snaps)

	// Before the drop it is still there
	snaps, err = e.StateAt("main", at(3))
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestStateAt_InheritsFromParentUpToFork(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))

	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer"), at(1))
	feature := makeBranch(t, e, "feature", main, at(10))

	// A later change on main must not leak into feature
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, name text"), at(20))

	snaps, err := e.StateAt(feature.ID, at(30))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.HashDefinition(usersDef("id integer")), snaps[0].ContentHash)

	// main itself sees the altered definition
	snaps, err = e.StateAt(main.ID, at(30))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.HashDefinition(usersDef("id integer, name text")), snaps[0].ContentHash)
}

func TestStateAt_LocalChangeOverridesInherited(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))

	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer"), at(1))
	feature := makeBranch(t, e, "feature", main, at(10))
	record(t, e, feature, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, email text"), at(15))

	snaps, err := e.StateAt(feature.ID, at(30))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, models.HashDefinition(usersDef("id integer, email text")), snaps[0].ContentHash)
}

func TestDiff_TwoPoints(t *testing.T) {
	e := newTestEngine(t)
	main := makeBranch(t, e, "main", nil, at(0))

	record(t, e, main, "public.users", models.ObjectTable, models.ChangeCreate, usersDef("id integer"), at(1))
	record(t, e, main, "public.users", models.ObjectTable, models.ChangeAlter, usersDef("id integer, name text"), at(5))
	record(t, e, main, "public.orders", models.ObjectTable, models.ChangeCreate, "CREATE TABLE orders (id integer)", at(6))

	deltas, err := e.Diff(Point{BranchID: "main", At: at(2)}, Point{BranchID: "main", At: at(10)})
	require.NoError(t, err)

	kinds := map[string]models.DeltaKind{}
	for _, d := range deltas {
		kinds[d.ObjectID] = d.Kind
	}
	assert.Equal(t, models.DeltaModified, kinds["public.users"])
	assert.Equal(t, models.DeltaAdded, kinds["public.orders"])
}
