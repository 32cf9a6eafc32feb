package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoludigit/pggit/internal/models"
)

func seedObject(t *testing.T, e *Engine, id string, objType models.ObjectType) {
	t.Helper()
	schema, name := "public", id
	if i := len("public."); len(id) > i && id[:i] == "public." {
		name = id[i:]
	}
	require.NoError(t, e.Store().UpsertObject(nil, &models.SchemaObject{
		ID:       id,
		Type:     objType,
		Schema:   schema,
		Name:     name,
		IsActive: true,
	}))
}

func TestTopoOrder_ParentsBeforeChildren(t *testing.T) {
	e := newTestEngine(t)
	seedObject(t, e, "public.users", models.ObjectTable)
	seedObject(t, e, "public.orders", models.ObjectTable)
	seedObject(t, e, "public.items", models.ObjectTable)

	// items -> orders -> users
	addEdge(t, e, "public.orders", "public.users", models.DepForeignKey, models.DepHard)
	addEdge(t, e, "public.items", "public.orders", models.DepForeignKey, models.DepHard)

	g, err := e.loadGraph()
	require.NoError(t, err)

	order, err := g.topoOrder([]string{"public.items", "public.users", "public.orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"public.users", "public.orders", "public.items"}, order)
}

func TestTopoOrder_IgnoresEdgesOutsideTheSet(t *testing.T) {
	e := newTestEngine(t)
	seedObject(t, e, "public.users", models.ObjectTable)
	seedObject(t, e, "public.orders", models.ObjectTable)
	addEdge(t, e, "public.orders", "public.users", models.DepForeignKey, models.DepHard)

	g, err := e.loadGraph()
	require.NoError(t, err)

	order, err := g.topoOrder([]string{"public.orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"public.orders"}, order)
}

func TestTopoOrder_DetectsCycle(t *testing.T) {
	e := newTestEngine(t)
	seedObject(t, e, "public.a", models.ObjectTable)
	seedObject(t, e, "public.b", models.ObjectTable)
	addEdge(t, e, "public.a", "public.b", models.DepForeignKey, models.DepHard)
	addEdge(t, e, "public.b", "public.a", models.DepForeignKey, models.DepHard)

	g, err := e.loadGraph()
	require.NoError(t, err)

	_, err = g.topoOrder([]string{"public.a", "public.b"})
	require.Error(t, err)
	var cycleErr *DependencyCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.NotEmpty(t, cycleErr.Cycle)
}

func TestRollbackDependencies(t *testing.T) {
	e := newTestEngine(t)
	seedObject(t, e, "public.users", models.ObjectTable)
	seedObject(t, e, "public.orders", models.ObjectTable)
	seedObject(t, e, "public.users_idx", models.ObjectIndex)

	addEdge(t, e, "public.orders", "public.users", models.DepForeignKey, models.DepHard)
	addEdge(t, e, "public.users_idx", "public.users", models.DepIndex, models.DepSoft)

	impacts, err := e.RollbackDependencies("public.users")
	require.NoError(t, err)
	require.Len(t, impacts, 2)

	byName := map[string]*models.DependencyImpact{}
	for _, impact := range impacts {
		byName[impact.DependentName] = impact
	}

	fk := byName["public.orders"]
	require.NotNil(t, fk)
	assert.Equal(t, models.DepHard, fk.Strength)
	assert.Contains(t, fk.SuggestedAction, "drop")

	idx := byName["public.users_idx"]
	require.NotNil(t, idx)
	assert.Equal(t, models.ObjectIndex, idx.DependentType)
	assert.Contains(t, idx.SuggestedAction, "recreate index")
}

func TestRollbackDependencies_UnknownObject(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RollbackDependencies("public.missing")
	assert.Error(t, err)
}
