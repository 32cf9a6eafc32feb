package models

import "time"

// BranchStatus represents the lifecycle state of a branch
type BranchStatus string

const (
	BranchActive     BranchStatus = "ACTIVE"
	BranchMerged     BranchStatus = "MERGED"
	BranchDeleted    BranchStatus = "DELETED"
	BranchConflicted BranchStatus = "CONFLICTED"
)

// Branch represents one line of schema evolution
type Branch struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	ParentID   string       `json:"parent_branch_id,omitempty"` // empty for the root branch
	Status     BranchStatus `json:"status"`
	HeadCommit string       `json:"head_commit,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// IsRoot returns true if the branch has no parent
func (b *Branch) IsRoot() bool {
	return b.ParentID == ""
}
