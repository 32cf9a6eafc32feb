package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMergeBase_DirectFork(t *testing.T) {
	e := newTestEngine(t)

	main := makeBranch(t, e, "main", nil, at(0))
	feature := makeBranch(t, e, "feature", main, at(10))

	base, err := e.FindMergeBase(feature.ID, main.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, base.Base.ID)
	assert.False(t, base.Unrelated())
}

func TestFindMergeBase_SharedAncestor(t *testing.T) {
	e := newTestEngine(t)

	main := makeBranch(t, e, "main", nil, at(0))
	left := makeBranch(t, e, "left", main, at(10))
	right := makeBranch(t, e, "right", main, at(20))

	base, err := e.FindMergeBase(left.ID, right.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, base.Base.ID)
}

func TestFindMergeBase_NestedFork(t *testing.T) {
	e := newTestEngine(t)

	main := makeBranch(t, e, "main", nil, at(0))
	feature := makeBranch(t, e, "feature", main, at(10))
	hotfix := makeBranch(t, e, "hotfix", feature, at(20))
	sibling := makeBranch(t, e, "sibling", main, at(30))

	// hotfix and sibling meet at main, not at feature
	base, err := e.FindMergeBase(hotfix.ID, sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, main.ID, base.Base.ID)

	// hotfix and feature meet at feature itself
	base, err = e.FindMergeBase(hotfix.ID, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, feature.ID, base.Base.ID)
}

func TestFindMergeBase_ResolvesByName(t *testing.T) {
	e := newTestEngine(t)

	main := makeBranch(t, e, "main", nil, at(0))
	makeBranch(t, e, "feature", main, at(10))

	base, err := e.FindMergeBase("feature", "main")
	require.NoError(t, err)
	assert.Equal(t, main.ID, base.Base.ID)
}

func TestFindMergeBase_UnknownBranch(t *testing.T) {
	e := newTestEngine(t)
	makeBranch(t, e, "main", nil, at(0))

	_, err := e.FindMergeBase("main", "nope")
	assert.Error(t, err)
}
