package models

// DependencyType classifies why one object references another
type DependencyType string

const (
	DepForeignKey   DependencyType = "FK"
	DepIndex        DependencyType = "INDEX"
	DepTrigger      DependencyType = "TRIGGER"
	DepView         DependencyType = "VIEW"
	DepFunctionCall DependencyType = "FUNCTION_CALL"
)

// DependencyStrength grades how breaking the target affects the source
type DependencyStrength string

const (
	// DepHard means breaking the target breaks the source (e.g. foreign key)
	DepHard DependencyStrength = "HARD"
	// DepSoft is an informational reference only
	DepSoft DependencyStrength = "SOFT"
)

// DependencyEdge records "source references target" in the dependency graph.
// Edges are maintained by the capture collaborator; this engine reads them.
type DependencyEdge struct {
	SourceID string             `json:"source_object_id"`
	TargetID string             `json:"target_object_id"`
	Type     DependencyType     `json:"type"`
	Strength DependencyStrength `json:"strength"`
}

// DependencyImpact describes one dependent of an object under rollback,
// with a suggested remediation ordering.
type DependencyImpact struct {
	ObjectID        string             `json:"object_id"`
	DependentID     string             `json:"dependent_id"`
	DependentName   string             `json:"dependent_name"`
	DependentType   ObjectType         `json:"dependent_type"`
	DependencyType  DependencyType     `json:"dependency_type"`
	Strength        DependencyStrength `json:"strength"`
	SuggestedAction string             `json:"suggested_action"`
}
