// Package models defines the core data structures used throughout pggit
// including schema objects, history entries, commits, and dependency edges.
package models

import "time"

// ObjectType represents the kind of database object under version control
type ObjectType string

const (
	ObjectTable    ObjectType = "TABLE"
	ObjectView     ObjectType = "VIEW"
	ObjectFunction ObjectType = "FUNCTION"
	ObjectIndex    ObjectType = "INDEX"
	ObjectTrigger  ObjectType = "TRIGGER"
	ObjectSequence ObjectType = "SEQUENCE"
)

// SchemaObject is the identity of one database object plus its last known
// definition. The definition here is derived state: it always equals the
// after_def of the latest active history entry for the object on its branch.
type SchemaObject struct {
	ID          string     `json:"object_id"`
	Type        ObjectType `json:"type"`
	Schema      string     `json:"schema"`
	Name        string     `json:"name"`
	Definition  string     `json:"current_definition,omitempty"`
	ContentHash string     `json:"content_hash,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// QualifiedName returns the schema-qualified object name
func (o *SchemaObject) QualifiedName() string {
	return o.Schema + "." + o.Name
}

// ObjectSnapshot is the reconstructed state of one object at a point in time
type ObjectSnapshot struct {
	ObjectID    string     `json:"object_id"`
	Type        ObjectType `json:"type"`
	Schema      string     `json:"schema"`
	Name        string     `json:"name"`
	Definition  string     `json:"definition"`
	ContentHash string     `json:"content_hash"`
	AsOf        time.Time  `json:"as_of"`
	BranchID    string     `json:"branch_id"`
}
