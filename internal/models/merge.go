package models

import "time"

// MergeStrategy selects how BOTH_MODIFIED conflicts are resolved.
// Auto-resolvable conflict classes are always applied regardless of strategy.
type MergeStrategy string

const (
	StrategyAbortOnConflict MergeStrategy = "ABORT_ON_CONFLICT" // default
	StrategyTargetWins      MergeStrategy = "TARGET_WINS"
	StrategySourceWins      MergeStrategy = "SOURCE_WINS"
	StrategyUnion           MergeStrategy = "UNION"
	StrategyManualReview    MergeStrategy = "MANUAL_REVIEW"
)

// Valid reports whether s is one of the known strategies
func (s MergeStrategy) Valid() bool {
	switch s {
	case StrategyAbortOnConflict, StrategyTargetWins, StrategySourceWins, StrategyUnion, StrategyManualReview:
		return true
	}
	return false
}

// ConflictType is the three-way classification of one object
type ConflictType string

const (
	NoConflict     ConflictType = "NO_CONFLICT"
	SourceModified ConflictType = "SOURCE_MODIFIED"
	TargetModified ConflictType = "TARGET_MODIFIED"
	DeletedSource  ConflictType = "DELETED_SOURCE"
	DeletedTarget  ConflictType = "DELETED_TARGET"
	BothModified   ConflictType = "BOTH_MODIFIED"
)

// AutoResolvable reports whether the classification resolves without a strategy
func (t ConflictType) AutoResolvable() bool {
	switch t {
	case SourceModified, TargetModified, DeletedSource, DeletedTarget:
		return true
	}
	return false
}

// ConflictSeverity grades the blast radius of a conflict
type ConflictSeverity string

const (
	SeverityInfo  ConflictSeverity = "INFO"
	SeverityMinor ConflictSeverity = "MINOR"
	SeverityMajor ConflictSeverity = "MAJOR"
)

// Conflict is one object's three-way comparison outcome
type Conflict struct {
	ObjectID       string           `json:"object_id"`
	ObjectType     ObjectType       `json:"object_type"`
	ObjectName     string           `json:"object_name"`
	Type           ConflictType     `json:"type"`
	Severity       ConflictSeverity `json:"severity"`
	BaseHash       string           `json:"base_hash,omitempty"`
	SourceHash     string           `json:"source_hash,omitempty"`
	TargetHash     string           `json:"target_hash,omitempty"`
	BaseDef        string           `json:"base_def,omitempty"`
	SourceDef      string           `json:"source_def,omitempty"`
	TargetDef      string           `json:"target_def,omitempty"`
	AutoResolvable bool             `json:"auto_resolvable"`
	Resolved       bool             `json:"resolved"`
	Resolution     ResolutionChoice `json:"resolution,omitempty"`
	ResolvedDef    string           `json:"resolved_def,omitempty"` // empty = resolution drops the object
}

// ResolutionChoice selects a side during manual conflict resolution
type ResolutionChoice string

const (
	ResolveSource ResolutionChoice = "SOURCE"
	ResolveTarget ResolutionChoice = "TARGET"
	ResolveCustom ResolutionChoice = "CUSTOM"
	// ResolveUnion records an automatic structural merge under the UNION strategy
	ResolveUnion ResolutionChoice = "UNION"
)

// MergeStatus is the lifecycle state of a merge operation
type MergeStatus string

const (
	MergePending  MergeStatus = "PENDING"
	MergeSuccess  MergeStatus = "SUCCESS"
	MergeConflict MergeStatus = "CONFLICT"
	MergeAborted  MergeStatus = "ABORTED"
)

// MergeOperation records one merge attempt and its outcome
type MergeOperation struct {
	ID                string        `json:"merge_id"`
	SourceBranch      string        `json:"source_branch"`
	TargetBranch      string        `json:"target_branch"`
	MergeBase         string        `json:"merge_base"`
	Strategy          MergeStrategy `json:"strategy"`
	Status            MergeStatus   `json:"status"`
	ConflictsDetected int           `json:"conflicts_detected"`
	ConflictsResolved int           `json:"conflicts_resolved"`
	ResultCommit      string        `json:"result_commit,omitempty"`
	Message           string        `json:"message,omitempty"`
	Author            string        `json:"author,omitempty"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at,omitempty"`
}

// MergeResult is the caller-facing outcome of merge_branches / resolve_conflict.
// Field names are a stable contract consumed by external tooling.
type MergeResult struct {
	MergeID           string      `json:"merge_id"`
	Status            MergeStatus `json:"status"`
	ConflictsDetected int         `json:"conflicts_detected"`
	ConflictsResolved int         `json:"conflicts_resolved"`
	ObjectsMerged     int         `json:"objects_merged"`
	ResultCommit      string      `json:"result_commit,omitempty"`
	Conflicts         []*Conflict `json:"conflicts,omitempty"`
}
