package store

import (
	"database/sql"

	"github.com/evoludigit/pggit/internal/models"
)

// UpsertObject registers a schema object identity if it is not known yet
func (s *Store) UpsertObject(q querier, obj *models.SchemaObject) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO schema_objects (id, object_type, schema_name, object_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		obj.ID, string(obj.Type), obj.Schema, obj.Name,
	)
	return err
}

// GetObject retrieves an object identity by ID
func (s *Store) GetObject(id string) (*models.SchemaObject, error) {
	var o models.SchemaObject
	var typ string
	err := s.db.QueryRow(`
		SELECT id, object_type, schema_name, object_name
		FROM schema_objects WHERE id = ?`, id).Scan(&o.ID, &typ, &o.Schema, &o.Name)
	if err != nil {
		return nil, err
	}
	o.Type = models.ObjectType(typ)
	return &o, nil
}

// GetObjectByName retrieves an object identity by schema-qualified name
func (s *Store) GetObjectByName(schema, name string) (*models.SchemaObject, error) {
	var o models.SchemaObject
	var typ string
	err := s.db.QueryRow(`
		SELECT id, object_type, schema_name, object_name
		FROM schema_objects WHERE schema_name = ? AND object_name = ?`,
		schema, name).Scan(&o.ID, &typ, &o.Schema, &o.Name)
	if err != nil {
		return nil, err
	}
	o.Type = models.ObjectType(typ)
	return &o, nil
}

// ListObjects returns all known object identities
func (s *Store) ListObjects() ([]*models.SchemaObject, error) {
	rows, err := s.db.Query(`
		SELECT id, object_type, schema_name, object_name
		FROM schema_objects ORDER BY schema_name, object_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var objects []*models.SchemaObject
	for rows.Next() {
		var o models.SchemaObject
		var typ string
		if err := rows.Scan(&o.ID, &typ, &o.Schema, &o.Name); err != nil {
			return nil, err
		}
		o.Type = models.ObjectType(typ)
		objects = append(objects, &o)
	}
	return objects, rows.Err()
}

// ObjectExists reports whether an object identity is known
func (s *Store) ObjectExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM schema_objects WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
