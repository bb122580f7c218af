// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gitrepo implements the Git Repository Facade (spec §4.1): it
// resolves revisions, computes path-scoped diffs and ancestry relations, and
// memoizes all of it for the lifetime of one process invocation.
package gitrepo

import (
	"fmt"

	"github.com/maruel/memora/internal/memoraerr"
)

// ObjectID is an opaque, comparable identifier for a Git object (commit or
// tree). Two ObjectIDs compare equal iff they name the same object.
type ObjectID string

// IsZero reports whether o is the zero value, used as the "None" sentinel
// for operations that may have no answer (last_commit_on_path,
// oldest_common_descendant_on_current_branch).
func (o ObjectID) IsZero() bool {
	return o == ""
}

func (o ObjectID) String() string {
	return string(o)
}

// Repo is the contract consumed by the resolver (spec §4.1). Implementations
// must be safe for concurrent use by a single process; memora never runs two
// Repo methods concurrently against the same instance today, but the
// memoization caches are guarded regardless in case that changes.
type Repo interface {
	// Root returns the absolute path to the working-tree root.
	Root() string
	// Head returns the current HEAD commit.
	Head() (ObjectID, error)
	// Resolve resolves a rev-spec (branch, tag, short hash, HEAD~2, ...) to
	// an object ID. Returns a memoraerr of Kind Git when the rev-spec doesn't
	// resolve.
	Resolve(revSpec string) (ObjectID, error)
	// Diff reports whether the content addressed by path differs between a
	// and b. Directories and symlinks are compared by tree content and link
	// text, never by following links. Memoized.
	Diff(a, b ObjectID, path string) (bool, error)
	// Changed reports whether Diff is true for any p in paths. Short-circuits
	// on the first true.
	Changed(a, b ObjectID, paths []string) (bool, error)
	// IsAncestor reports whether a is a (non-strict) ancestor of b. Memoized.
	IsAncestor(a, b ObjectID) (bool, error)
	// AncestorsOnCurrentBranch returns commits reachable from current HEAD
	// that are ancestors of o and lie on the first-parent history of HEAD.
	AncestorsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error)
	// DescendantsOnCurrentBranch returns commits on the current branch
	// between o and HEAD inclusive, when o is an ancestor of HEAD.
	DescendantsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error)
	// LastCommitOnPath returns the youngest commit, walking back from from,
	// that touched path. ok is false when the log is empty for that path.
	LastCommitOnPath(path string, from ObjectID) (id ObjectID, ok bool, err error)
	// Youngest returns the maximum of objects under the is-ancestor-of
	// partial order. Returns a memoraerr of Kind Incomparable if two elements
	// are pairwise incomparable. A single-element set trivially returns its
	// element.
	Youngest(objects []ObjectID) (ObjectID, error)
	// Oldest is the dual of Youngest.
	Oldest(objects []ObjectID) (ObjectID, error)
	// OldestCommonDescendantOnCurrentBranch returns the oldest object c on
	// the current branch such that every o in objects is an ancestor of c.
	// ok is false if no such c exists.
	OldestCommonDescendantOnCurrentBranch(objects []ObjectID) (id ObjectID, ok bool, err error)
}

// ErrEmptySet is returned by Youngest/Oldest when called with no objects;
// the spec only defines the operation over non-empty sets.
var ErrEmptySet = fmt.Errorf("gitrepo: empty object set")

func gitErr(err error, format string, args ...interface{}) error {
	return memoraerr.Wrap(memoraerr.Git, err, format, args...)
}
