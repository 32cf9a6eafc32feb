package models

// DeltaKind classifies one object's change between two points
type DeltaKind string

const (
	DeltaUnchanged DeltaKind = "UNCHANGED"
	DeltaAdded     DeltaKind = "ADDED"
	DeltaRemoved   DeltaKind = "REMOVED"
	DeltaModified  DeltaKind = "MODIFIED"
)

// ObjectDelta is one object's comparison between two reference points
type ObjectDelta struct {
	ObjectID   string     `json:"object_id"`
	ObjectName string     `json:"object_name"`
	ObjectType ObjectType `json:"object_type"`
	Kind       DeltaKind  `json:"kind"`
	HashA      string     `json:"hash_a,omitempty"`
	HashB      string     `json:"hash_b,omitempty"`
	DefA       string     `json:"def_a,omitempty"`
	DefB       string     `json:"def_b,omitempty"`
}
