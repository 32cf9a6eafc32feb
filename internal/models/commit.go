package models

import "time"

// Commit represents an atomic set of object changes on one branch
type Commit struct {
	Hash        string    `json:"commit_hash"`
	BranchID    string    `json:"branch_id"`
	ParentHash  string    `json:"parent_commit_hash,omitempty"`
	MergeParent string    `json:"merge_parent_hash,omitempty"` // source head for merge commits
	Author      string    `json:"author"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	EntryCount  int       `json:"entry_count"`
}

// ShortHash returns a shortened commit hash (first 7 characters)
func (c *Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// IsMergeCommit returns true if this commit has two parents
func (c *Commit) IsMergeCommit() bool {
	return c.MergeParent != ""
}
