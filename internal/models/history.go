package models

import "time"

// ChangeType represents the kind of change recorded in a history entry
type ChangeType string

const (
	ChangeCreate   ChangeType = "CREATE"
	ChangeAlter    ChangeType = "ALTER"
	ChangeDrop     ChangeType = "DROP"
	ChangeMerge    ChangeType = "MERGE"
	ChangeRollback ChangeType = "ROLLBACK"
)

// HistoryEntry is one immutable change record in the append-only ledger.
// Entries are never updated or deleted; rollback and merge append new ones.
type HistoryEntry struct {
	ID         int64      `json:"history_id"`
	ObjectID   string     `json:"object_id"`
	BranchID   string     `json:"branch_id"`
	ChangeType ChangeType `json:"change_type"`
	BeforeHash string     `json:"before_hash,omitempty"`
	AfterHash  string     `json:"after_hash,omitempty"`
	BeforeDef  string     `json:"before_def,omitempty"`
	AfterDef   string     `json:"after_def,omitempty"`
	CommitHash string     `json:"commit_hash,omitempty"`
	Author     string     `json:"author"`
	Timestamp  time.Time  `json:"timestamp"`
}

// IsDrop returns true if the entry removes the object
func (e *HistoryEntry) IsDrop() bool {
	return e.ChangeType == ChangeDrop
}

// ObjectChangeEvent is one captured DDL change produced by the upstream
// capture collaborator. Events are appended verbatim into the ledger.
type ObjectChangeEvent struct {
	ObjectID   string     `json:"object_id"`
	Schema     string     `json:"schema"`
	Name       string     `json:"name"`
	Type       ObjectType `json:"type"`
	ChangeType ChangeType `json:"change_type"`
	BeforeDef  string     `json:"before_def,omitempty"`
	AfterDef   string     `json:"after_def,omitempty"`
	BranchID   string     `json:"branch_id"`
	Author     string     `json:"author"`
	Timestamp  time.Time  `json:"timestamp"`
}
