// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gitrepo

import (
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/maruel/memora/internal/logging"
)

var _ Repo = (*ExecRepo)(nil)

// ExecRepo is a Repo backed by invoking the system git binary in a working
// directory, per spec §6. It is the only production implementation; tests
// substitute a fake (see fake.go) to exercise the resolver's properties
// without a real checkout.
type ExecRepo struct {
	root string

	diffMu    sync.Mutex
	diffCache map[diffKey]bool

	ancestryMu    sync.Mutex
	ancestryCache map[ancestryKey]bool
}

type diffKey struct {
	a, b ObjectID
	path string
}

type ancestryKey struct {
	a, b ObjectID
}

// Open locates the git checkout root containing wd and returns an ExecRepo
// rooted there. Grounded on scm.getRepo's use of "git rev-parse --show-cdup".
func Open(wd string) (*ExecRepo, error) {
	root, err := captureAbs(wd, "rev-parse", "--show-cdup")
	if err != nil {
		return nil, gitErr(err, "failed to find git checkout root from %q", wd)
	}
	return &ExecRepo{
		root:          root,
		diffCache:     map[diffKey]bool{},
		ancestryCache: map[ancestryKey]bool{},
	}, nil
}

// Root implements Repo.
func (g *ExecRepo) Root() string {
	return g.root
}

// Head implements Repo.
func (g *ExecRepo) Head() (ObjectID, error) {
	return g.Resolve("HEAD")
}

// Resolve implements Repo.
func (g *ExecRepo) Resolve(revSpec string) (ObjectID, error) {
	out, code, err := g.capture("rev-parse", "--verify", "-q", revSpec+"^{commit}")
	if code != 0 || err != nil {
		return "", gitErr(err, "failed to resolve %q", revSpec)
	}
	return ObjectID(strings.TrimSpace(out)), nil
}

// Diff implements Repo. Memoized per (a, b, path); diff(a,a,path) is always
// false and is not special-cased since git itself reports no difference.
func (g *ExecRepo) Diff(a, b ObjectID, path string) (bool, error) {
	key := diffKey{a, b, path}
	g.diffMu.Lock()
	if v, ok := g.diffCache[key]; ok {
		g.diffMu.Unlock()
		return v, nil
	}
	g.diffMu.Unlock()

	_, code, err := g.capture("diff", "--quiet", "--no-ext-diff", string(a), string(b), "--", path)
	if err != nil {
		return false, gitErr(err, "diff %s..%s -- %s", a, b, path)
	}
	var changed bool
	switch code {
	case 0:
		changed = false
	case 1:
		changed = true
	default:
		return false, gitErr(nil, "git diff exited %d for %s..%s -- %s", code, a, b, path)
	}

	g.diffMu.Lock()
	g.diffCache[key] = changed
	g.diffMu.Unlock()
	return changed, nil
}

// Changed implements Repo.
func (g *ExecRepo) Changed(a, b ObjectID, paths []string) (bool, error) {
	for _, p := range paths {
		d, err := g.Diff(a, b, p)
		if err != nil {
			return false, err
		}
		if d {
			return true, nil
		}
	}
	return false, nil
}

// IsAncestor implements Repo. Memoized per (a, b).
func (g *ExecRepo) IsAncestor(a, b ObjectID) (bool, error) {
	if a == b {
		return true, nil
	}
	key := ancestryKey{a, b}
	g.ancestryMu.Lock()
	if v, ok := g.ancestryCache[key]; ok {
		g.ancestryMu.Unlock()
		return v, nil
	}
	g.ancestryMu.Unlock()

	_, code, err := g.capture("merge-base", "--is-ancestor", string(a), string(b))
	var result bool
	switch code {
	case 0:
		result = true
	case 1:
		result = false
	default:
		return false, gitErr(err, "merge-base --is-ancestor %s %s exited %d", a, b, code)
	}

	g.ancestryMu.Lock()
	g.ancestryCache[key] = result
	g.ancestryMu.Unlock()
	return result, nil
}

// firstParentChain returns the commits on the first-parent history of HEAD,
// from HEAD back to the root commit.
func (g *ExecRepo) firstParentChain() ([]ObjectID, error) {
	out, code, err := g.capture("rev-list", "--first-parent", "HEAD")
	if code != 0 || err != nil {
		return nil, gitErr(err, "rev-list --first-parent HEAD")
	}
	return splitLines(out), nil
}

// AncestorsOnCurrentBranch implements Repo.
func (g *ExecRepo) AncestorsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error) {
	chain, err := g.firstParentChain()
	if err != nil {
		return nil, err
	}
	out := map[ObjectID]struct{}{}
	for _, c := range chain {
		ok, err := g.IsAncestor(c, o)
		if err != nil {
			return nil, err
		}
		if ok {
			out[c] = struct{}{}
		}
	}
	return out, nil
}

// DescendantsOnCurrentBranch implements Repo.
func (g *ExecRepo) DescendantsOnCurrentBranch(o ObjectID) (map[ObjectID]struct{}, error) {
	head, err := g.Head()
	if err != nil {
		return nil, err
	}
	isAnc, err := g.IsAncestor(o, head)
	if err != nil {
		return nil, err
	}
	if !isAnc {
		return map[ObjectID]struct{}{}, nil
	}
	chain, err := g.firstParentChain()
	if err != nil {
		return nil, err
	}
	out := map[ObjectID]struct{}{}
	for _, c := range chain {
		ok, err := g.IsAncestor(o, c)
		if err != nil {
			return nil, err
		}
		if ok {
			out[c] = struct{}{}
		}
	}
	return out, nil
}

// LastCommitOnPath implements Repo.
func (g *ExecRepo) LastCommitOnPath(path string, from ObjectID) (ObjectID, bool, error) {
	out, code, err := g.capture("log", "--format=%H", "-n1", string(from), "--", path)
	if code != 0 || err != nil {
		return "", false, gitErr(err, "log --format=%%H -n1 %s -- %s", from, path)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", false, nil
	}
	return ObjectID(out), true, nil
}

// Youngest implements Repo.
func (g *ExecRepo) Youngest(objects []ObjectID) (ObjectID, error) {
	return selectExtreme(objects, g.IsAncestor)
}

// Oldest implements Repo.
func (g *ExecRepo) Oldest(objects []ObjectID) (ObjectID, error) {
	flipped := func(a, b ObjectID) (bool, error) { return g.IsAncestor(b, a) }
	return selectExtreme(objects, flipped)
}

// OldestCommonDescendantOnCurrentBranch implements Repo.
func (g *ExecRepo) OldestCommonDescendantOnCurrentBranch(objects []ObjectID) (ObjectID, bool, error) {
	return oldestCommonDescendant(objects, g.DescendantsOnCurrentBranch, g.Oldest)
}

func (g *ExecRepo) capture(args ...string) (string, int, error) {
	return captureWd(g.root, append([]string{"git"}, args...)...)
}

// captureAbs is the teacher's scm/repo.go getRepo helper: "--show-cdup"
// prints a path relative to wd (empty when wd is already the checkout
// root), so it must be joined back against wd and cleaned to get an
// absolute root.
func captureAbs(wd string, gitArgs ...string) (string, error) {
	out, code, _ := captureWd(wd, append([]string{"git"}, gitArgs...)...)
	if code != 0 {
		return "", gitErr(nil, "git %s failed", strings.Join(gitArgs, " "))
	}
	out = strings.TrimSpace(out)
	if !filepath.IsAbs(out) {
		out = filepath.Clean(filepath.Join(wd, out))
	}
	return out, nil
}

// captureWd runs an executable from a directory and returns its output, exit
// code and error, the way internal.CaptureWd does in the teacher repo.
func captureWd(wd string, args ...string) (string, int, error) {
	exitCode := -1
	logging.L.Debugf("captureWd(%s, %v)", wd, args)
	c := exec.Command(args[0], args[1:]...)
	if wd != "" {
		c.Dir = wd
	}
	out, err := c.CombinedOutput()
	if c.ProcessState != nil {
		if waitStatus, ok := c.ProcessState.Sys().(syscall.WaitStatus); ok {
			exitCode = waitStatus.ExitStatus()
			if exitCode != 0 {
				err = nil
			}
		}
	}
	return string(out), exitCode, err
}

func splitLines(s string) []ObjectID {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]ObjectID, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, ObjectID(l))
		}
	}
	return out
}
