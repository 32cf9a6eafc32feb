package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// HashDefinition computes the content hash of an object definition.
// Whitespace is normalized so formatting-only edits hash identically.
func HashDefinition(definition string) string {
	if definition == "" {
		return ""
	}
	normalized := strings.Join(strings.Fields(definition), " ")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}

// GenerateCommitHash generates a content-addressable commit hash.
// The hash includes a Merkle digest of the history entries so two commits
// with identical metadata but different changes produce different hashes.
func GenerateCommitHash(branchID, message, author string, timestamp time.Time, parentHash string, entries []*HistoryEntry) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		branchID, message, author, timestamp.Format(time.RFC3339Nano), parentHash, ComputeEntriesHash(entries))
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

// GenerateMergeCommitHash generates a commit hash that binds both parents.
func GenerateMergeCommitHash(branchID, message, author string, timestamp time.Time, parent1, parent2 string, entries []*HistoryEntry) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		branchID, message, author, timestamp.Format(time.RFC3339Nano), parent1, parent2, ComputeEntriesHash(entries))
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}

// ComputeEntriesHash computes a Merkle digest over a set of history entries.
// Each entry is hashed individually, the hashes are sorted, then hashed
// together, so ordering of the input slice does not matter.
func ComputeEntriesHash(entries []*HistoryEntry) string {
	if len(entries) == 0 {
		return ""
	}

	hashes := make([]string, len(entries))
	for i, e := range entries {
		data := fmt.Sprintf("%s|%s|%s|%s|%s",
			e.ObjectID, e.ChangeType, e.BranchID, e.BeforeHash, e.AfterHash)
		h := sha256.Sum256([]byte(data))
		hashes[i] = hex.EncodeToString(h[:])
	}
	sort.Strings(hashes)

	final := sha256.Sum256([]byte(strings.Join(hashes, "")))
	return hex.EncodeToString(final[:])
}
