package store

import "github.com/evoludigit/pggit/internal/models"

// AddDependency records an edge in the dependency graph. The graph is
// maintained by the capture collaborator; this is the ingestion path.
func (s *Store) AddDependency(e *models.DependencyEdge) error {
	_, err := s.db.Exec(`
		INSERT INTO dependencies (source_object_id, target_object_id, dep_type, strength)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_object_id, target_object_id, dep_type) DO UPDATE SET strength = ?`,
		e.SourceID, e.TargetID, string(e.Type), string(e.Strength), string(e.Strength),
	)
	return err
}

// GetDependents returns edges whose target is the given object, i.e. the
// objects that reference it.
func (s *Store) GetDependents(targetID string) ([]*models.DependencyEdge, error) {
	return s.queryEdges(`
		SELECT source_object_id, target_object_id, dep_type, strength
		FROM dependencies WHERE target_object_id = ?
		ORDER BY source_object_id, dep_type`, targetID)
}

// GetDependencies returns edges whose source is the given object, i.e. the
// objects it references.
func (s *Store) GetDependencies(sourceID string) ([]*models.DependencyEdge, error) {
	return s.queryEdges(`
		SELECT source_object_id, target_object_id, dep_type, strength
		FROM dependencies WHERE source_object_id = ?
		ORDER BY target_object_id, dep_type`, sourceID)
}

// GetAllEdges returns the full edge list of the dependency graph
func (s *Store) GetAllEdges() ([]*models.DependencyEdge, error) {
	return s.queryEdges(`
		SELECT source_object_id, target_object_id, dep_type, strength
		FROM dependencies ORDER BY source_object_id, target_object_id`)
}

func (s *Store) queryEdges(query string, args ...any) ([]*models.DependencyEdge, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*models.DependencyEdge
	for rows.Next() {
		var e models.DependencyEdge
		var typ, strength string
		if err := rows.Scan(&e.SourceID, &e.TargetID, &typ, &strength); err != nil {
			return nil, err
		}
		e.Type = models.DependencyType(typ)
		e.Strength = models.DependencyStrength(strength)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}
