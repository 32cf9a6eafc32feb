package core

import (
	"fmt"
	"math"

	"github.com/evoludigit/pggit/internal/models"
)

// DepthUnrelated is the depth reported for the fallback branch when two
// branches share no ancestor ("unrelated histories").
const DepthUnrelated = math.MaxInt32

// MergeBase identifies the lowest common ancestor of two branches
type MergeBase struct {
	Base        *models.Branch
	DepthSource int
	DepthTarget int
}

// Unrelated reports whether the histories share no real common ancestor
func (m *MergeBase) Unrelated() bool {
	return m.DepthSource == DepthUnrelated || m.DepthTarget == DepthUnrelated
}

// FindMergeBase walks the parent pointers of both branches and returns the
// deepest branch present in both ancestor chains, with each branch's
// distance to it. If the branches share no ancestor, the designated root
// branch is returned with DepthTarget = DepthUnrelated.
// Pure function over branch metadata; no side effects.
func (e *Engine) FindMergeBase(sourceRef, targetRef string) (*MergeBase, error) {
	source, err := e.store.ResolveBranch(sourceRef)
	if err != nil {
		return nil, notFound(err, "branch", sourceRef)
	}
	target, err := e.store.ResolveBranch(targetRef)
	if err != nil {
		return nil, notFound(err, "branch", targetRef)
	}

	sourceChain, err := e.ancestorChain(source)
	if err != nil {
		return nil, err
	}
	targetDepths := make(map[string]int)
	targetChain, err := e.ancestorChain(target)
	if err != nil {
		return nil, err
	}
	for depth, b := range targetChain {
		targetDepths[b.ID] = depth
	}

	// First hit walking up from source is the deepest shared branch
	for depthSource, b := range sourceChain {
		if depthTarget, ok := targetDepths[b.ID]; ok {
			return &MergeBase{Base: b, DepthSource: depthSource, DepthTarget: depthTarget}, nil
		}
	}

	// Unrelated histories: fall back to the designated root branch
	root, err := e.store.GetRootBranch()
	if err != nil {
		return nil, notFound(err, "root branch", "")
	}
	return &MergeBase{Base: root, DepthSource: len(sourceChain), DepthTarget: DepthUnrelated}, nil
}

// ancestorChain returns the branch and its ancestors, nearest first
func (e *Engine) ancestorChain(b *models.Branch) ([]*models.Branch, error) {
	chain := []*models.Branch{b}
	seen := map[string]bool{b.ID: true}

	current := b
	for current.ParentID != "" {
		parent, err := e.store.GetBranch(current.ParentID)
		if err != nil {
			return nil, notFound(err, "branch", current.ParentID)
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("branch ancestry of %s contains a cycle at %s", b.Name, parent.Name)
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}
