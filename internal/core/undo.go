package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evoludigit/pggit/internal/models"
)

// UndoOptions scopes an undo to specific objects and either one commit or a
// time window. At least one object name is required; Commit and the window
// are mutually exclusive.
type UndoOptions struct {
	Objects []string
	Commit  string
	From    time.Time
	To      time.Time
	Mode    models.RollbackMode
}

// UndoChanges runs the rollback pipeline restricted to the named objects.
// Object names may be schema-qualified; unqualified names default to public.
func (e *Engine) UndoChanges(ctx context.Context, branchRef string, opts UndoOptions) (*models.RollbackResult, error) {
	if len(opts.Objects) == 0 {
		return nil, fmt.Errorf("undo needs at least one object name")
	}
	if opts.Commit != "" && !opts.From.IsZero() {
		return nil, fmt.Errorf("undo takes a commit or a time window, not both")
	}

	wanted := make(map[string]bool, len(opts.Objects))
	for _, name := range opts.Objects {
		obj, err := e.resolveObjectName(name)
		if err != nil {
			return nil, err
		}
		wanted[obj.ID] = true
	}

	var scope *rollbackScope
	var err error
	switch {
	case opts.Commit != "":
		scope, err = e.scopeForCommit(branchRef, opts.Commit)
	case !opts.From.IsZero():
		scope, err = e.scopeForWindow(branchRef, opts.From, opts.To)
	default:
		return nil, fmt.Errorf("undo needs a commit or a time window")
	}
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.HistoryEntry, 0, len(scope.entries))
	for _, entry := range scope.entries {
		if wanted[entry.ObjectID] {
			filtered = append(filtered, entry)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no changes to the named objects in the requested scope")
	}
	scope.entries = filtered
	scope.rbType = models.RollbackUndo

	return e.runRollback(ctx, &rollbackRequest{
		scope:         scope,
		mode:          opts.Mode,
		order:         models.OrderDependency,
		validateFirst: true,
	})
}

// scopeForWindow targets the entries inside an explicit time window.
func (e *Engine) scopeForWindow(branchRef string, from, to time.Time) (*rollbackScope, error) {
	branch, err := e.store.ResolveBranch(branchRef)
	if err != nil {
		return nil, notFound(err, "branch", branchRef)
	}
	if to.IsZero() {
		to = farFuture
	}
	if to.Before(from) {
		return nil, fmt.Errorf("time window ends before it starts")
	}
	entries, err := e.store.GetBranchEntriesBetween(branch.ID, from, to)
	if err != nil {
		return nil, err
	}
	return &rollbackScope{
		branch:       branch,
		sourceCommit: branch.HeadCommit,
		rbType:       models.RollbackUndo,
		entries:      entries,
	}, nil
}

// resolveObjectName looks an object up by ID first, then by qualified name.
func (e *Engine) resolveObjectName(ref string) (*models.SchemaObject, error) {
	if obj, err := e.store.GetObject(ref); err == nil {
		return obj, nil
	}
	schema, name := "public", ref
	if i := strings.IndexByte(ref, '.'); i > 0 {
		schema, name = ref[:i], ref[i+1:]
	}
	obj, err := e.store.GetObjectByName(schema, name)
	if err != nil {
		return nil, notFound(err, "object", ref)
	}
	return obj, nil
}
