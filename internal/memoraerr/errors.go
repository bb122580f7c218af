// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package memoraerr defines the error kinds the core surfaces, per spec §7.
// The mapping to process exit codes lives in cmd/memora's exitCode, which
// maps every error to exit code 2 whatever its kind.
package memoraerr

import "fmt"

// Kind classifies an error so callers can map it to an exit code without
// string matching.
type Kind int

// All recognized error kinds. A miss (valid "not cached") is not a Kind; it
// is a plain bool/ok return from lookup/get, never an error.
const (
	// ManifestNotFound means none of the conventional manifest locations
	// held a file.
	ManifestNotFound Kind = iota
	// ManifestParse means the manifest existed but failed to parse or
	// violated its schema (duplicate names, empty inputs/outputs, ...).
	ManifestParse
	// ArtifactNotFound means the requested artifact name isn't declared in
	// the manifest.
	ArtifactNotFound
	// Git wraps any failure from the repository facade: not a repository,
	// missing revision, or the git binary itself failing.
	Git
	// Incomparable means youngest/oldest was applied to a set containing
	// two mutually incomparable objects (diverged branches).
	Incomparable
	// IO wraps a filesystem failure during copy, stage, rename, or lock.
	IO
	// LockContention is only produced by a non-blocking lock attempt; the
	// default acquisition mode is blocking, so this is normally unused.
	LockContention
)

func (k Kind) String() string {
	switch k {
	case ManifestNotFound:
		return "manifest not found"
	case ManifestParse:
		return "manifest parse error"
	case ArtifactNotFound:
		return "artifact not found"
	case Git:
		return "git error"
	case Incomparable:
		return "incomparable"
	case IO:
		return "io error"
	case LockContention:
		return "lock contention"
	default:
		return "unknown error"
	}
}

// Error is a Kind-tagged error. All errors that cross a component boundary
// in the core are wrapped in Error so callers can tell their kinds apart.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind of err, defaulting to Git for untagged errors,
// since most untagged failures in this codebase originate from a Repo
// implementation.
func KindOf(err error) Kind {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind
	}
	return Git
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
