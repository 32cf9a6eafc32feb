package core

import (
	"sort"

	"github.com/evoludigit/pggit/internal/models"
)

// depGraph is an in-memory view of the dependency edges. Source depends on
// target, so a valid apply order places targets before their sources.
type depGraph struct {
	edges      []*models.DependencyEdge
	dependents map[string][]*models.DependencyEdge // target -> incoming edges
	targets    map[string][]*models.DependencyEdge // source -> outgoing edges
}

func (e *Engine) loadGraph() (*depGraph, error) {
	edges, err := e.store.GetAllEdges()
	if err != nil {
		return nil, err
	}
	g := &depGraph{
		edges:      edges,
		dependents: make(map[string][]*models.DependencyEdge),
		targets:    make(map[string][]*models.DependencyEdge),
	}
	for _, edge := range edges {
		g.dependents[edge.TargetID] = append(g.dependents[edge.TargetID], edge)
		g.targets[edge.SourceID] = append(g.targets[edge.SourceID], edge)
	}
	return g, nil
}

// topoOrder sorts the given object IDs so every object comes after the
// objects it depends on. Only edges between members of the set count.
// A cycle inside the set yields a DependencyCycleError naming the cycle.
func (g *depGraph) topoOrder(ids []string) ([]string, error) {
	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	// Kahn's algorithm over the induced subgraph.
	indegree := make(map[string]int, len(ids))
	for _, id := range ids {
		indegree[id] = 0
	}
	for _, edge := range g.edges {
		if member[edge.SourceID] && member[edge.TargetID] {
			indegree[edge.SourceID]++
		}
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var freed []string
		for _, edge := range g.dependents[id] {
			if !member[edge.SourceID] {
				continue
			}
			indegree[edge.SourceID]--
			if indegree[edge.SourceID] == 0 {
				freed = append(freed, edge.SourceID)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(order) < len(ids) {
		return nil, &DependencyCycleError{Cycle: g.findCycle(member, indegree)}
	}
	return order, nil
}

// findCycle walks outgoing edges from a node still holding indegree to
// recover one concrete cycle for the error message.
func (g *depGraph) findCycle(member map[string]bool, indegree map[string]int) []string {
	remaining := make([]string, 0, len(indegree))
	for id, deg := range indegree {
		if deg > 0 {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	if len(remaining) == 0 {
		return nil
	}

	seen := make(map[string]int)
	var path []string
	cur := remaining[0]
	for {
		if at, ok := seen[cur]; ok {
			return append(path[at:], cur)
		}
		seen[cur] = len(path)
		path = append(path, cur)

		next := ""
		for _, edge := range g.targets[cur] {
			if member[edge.TargetID] && indegree[edge.TargetID] > 0 {
				next = edge.TargetID
				break
			}
		}
		if next == "" {
			// Should not happen on a true cycle member, bail with what we have.
			return path
		}
		cur = next
	}
}

// hasCycleWithin reports whether the induced subgraph over ids is cyclic.
func (g *depGraph) hasCycleWithin(ids []string) ([]string, bool) {
	if _, err := g.topoOrder(ids); err != nil {
		if cycleErr, ok := err.(*DependencyCycleError); ok {
			return cycleErr.Cycle, true
		}
	}
	return nil, false
}

// RollbackDependencies lists every object that depends on the given object,
// with a per-edge suggested remediation for a rollback touching it.
func (e *Engine) RollbackDependencies(objectRef string) ([]*models.DependencyImpact, error) {
	obj, err := e.store.GetObject(objectRef)
	if err != nil {
		return nil, notFound(err, "object", objectRef)
	}

	edges, err := e.store.GetDependents(obj.ID)
	if err != nil {
		return nil, err
	}

	impacts := make([]*models.DependencyImpact, 0, len(edges))
	for _, edge := range edges {
		dep, err := e.store.GetObject(edge.SourceID)
		if err != nil {
			return nil, notFound(err, "object", edge.SourceID)
		}
		impacts = append(impacts, &models.DependencyImpact{
			ObjectID:        obj.ID,
			DependentID:     dep.ID,
			DependentName:   dep.QualifiedName(),
			DependentType:   dep.Type,
			DependencyType:  edge.Type,
			Strength:        edge.Strength,
			SuggestedAction: suggestedAction(edge, dep),
		})
	}
	sort.Slice(impacts, func(i, j int) bool {
		return impacts[i].DependentName < impacts[j].DependentName
	})
	return impacts, nil
}

func suggestedAction(edge *models.DependencyEdge, dep *models.SchemaObject) string {
	switch edge.Type {
	case models.DepForeignKey:
		if edge.Strength == models.DepHard {
			return "drop " + dep.QualifiedName() + " or its foreign key before rolling back"
		}
		return "review foreign key in " + dep.QualifiedName() + " after rollback"
	case models.DepIndex:
		return "recreate index " + dep.QualifiedName() + " after the rollback restores its columns"
	case models.DepTrigger:
		return "recreate trigger " + dep.QualifiedName() + " after rollback"
	case models.DepView:
		if edge.Strength == models.DepHard {
			return "drop and recreate view " + dep.QualifiedName() + " around the rollback"
		}
		return "refresh view " + dep.QualifiedName() + " after rollback"
	case models.DepFunctionCall:
		return "verify function " + dep.QualifiedName() + " still resolves after rollback"
	default:
		return "review dependent " + dep.QualifiedName()
	}
}
