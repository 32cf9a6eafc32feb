package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// RecordChange appends one captured DDL change to the ledger under a new
// commit. The event's before image must match the object's current state on
// the branch, so out-of-order capture streams are rejected instead of
// corrupting the chain.
func (e *Engine) RecordChange(ctx context.Context, event *models.ObjectChangeEvent) (*models.Commit, error) {
	branch, err := e.store.ResolveBranch(event.BranchID)
	if err != nil {
		return nil, notFound(err, "branch", event.BranchID)
	}
	if branch.Status != models.BranchActive {
		return nil, fmt.Errorf("branch %s is %s; only active branches accept changes", branch.Name, branch.Status)
	}
	if event.ObjectID == "" || event.Name == "" {
		return nil, fmt.Errorf("change event needs an object id and name")
	}

	unlock := e.lockBranches(branch.ID)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	beforeHash := models.HashDefinition(event.BeforeDef)
	afterHash := models.HashDefinition(event.AfterDef)

	prior, err := e.store.LatestEntry(branch.ID, event.ObjectID)
	if err != nil {
		return nil, err
	}
	var priorHash string
	if prior != nil {
		priorHash = prior.AfterHash
	}
	if priorHash != beforeHash {
		return nil, fmt.Errorf("before image of %s.%s does not match its recorded state (have %s, event says %s)",
			event.Schema, event.Name, short(priorHash), short(beforeHash))
	}

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entry := &models.HistoryEntry{
		ObjectID:   event.ObjectID,
		BranchID:   branch.ID,
		ChangeType: event.ChangeType,
		BeforeHash: beforeHash,
		AfterHash:  afterHash,
		BeforeDef:  event.BeforeDef,
		AfterDef:   event.AfterDef,
		Author:     event.Author,
		Timestamp:  now,
	}
	message := fmt.Sprintf("%s %s.%s", event.ChangeType, event.Schema, event.Name)
	commitHash := models.GenerateCommitHash(branch.ID, message, event.Author, now, branch.HeadCommit, []*models.HistoryEntry{entry})

	obj := &models.SchemaObject{
		ID:          event.ObjectID,
		Type:        event.Type,
		Schema:      event.Schema,
		Name:        event.Name,
		Definition:  event.AfterDef,
		ContentHash: afterHash,
		IsActive:    afterHash != "",
	}

	commit := &models.Commit{
		Hash:       commitHash,
		BranchID:   branch.ID,
		ParentHash: branch.HeadCommit,
		Author:     event.Author,
		Message:    message,
		Timestamp:  now,
		EntryCount: 1,
	}

	err = e.store.InTx(func(tx *sql.Tx) error {
		if err := e.store.UpsertObject(tx, obj); err != nil {
			return err
		}
		if err := e.store.CreateCommit(tx, commit); err != nil {
			return err
		}
		entry.CommitHash = commitHash
		if err := e.store.AppendEntry(tx, entry); err != nil {
			return err
		}
		return e.store.UpdateBranchHead(tx, branch.ID, commitHash)
	})
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Str("branch", branch.Name).
		Str("object", event.Schema+"."+event.Name).
		Str("change", string(event.ChangeType)).
		Str("commit", commit.ShortHash()).
		Msg("change recorded")
	return commit, nil
}

// Log returns the most recent commits of a branch, newest first.
func (e *Engine) Log(branchRef string, limit int) ([]*models.Commit, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	return e.store.GetCommitLog(branch.ID, limit)
}
