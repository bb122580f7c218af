// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package artifact

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/maruel/memora/internal/memoraerr"
)

// wildcardClass is the character class an expansion may be made of, per
// spec §4.2 / §9 (open question: the class has grown over time to include
// "-", ".", "+"; this is the current, pinned contract). Matching is
// non-greedy so a pattern followed by literal characters that also appear
// in the class picks the shortest valid expansion.
const wildcardClass = `[A-Za-z0-9_.+\-]+?`

// compileTemplate turns an output template containing exactly one Wildcard
// into a regexp with one capture group for the expansion.
func compileTemplate(template string) (*regexp.Regexp, error) {
	idx := strings.Index(template, Wildcard)
	if idx < 0 {
		return nil, memoraerr.New(memoraerr.ManifestParse, "template %q has no wildcard", template)
	}
	before, after := template[:idx], template[idx+len(Wildcard):]
	if strings.Contains(after, Wildcard) {
		return nil, memoraerr.New(memoraerr.ManifestParse, "template %q contains %q more than once", template, Wildcard)
	}
	pattern := "^" + regexp.QuoteMeta(before) + "(" + wildcardClass + ")" + regexp.QuoteMeta(after) + "$"
	return regexp.Compile(pattern)
}

// MatchExpansion reports the wildcard expansion of candidatePath against
// template, if any.
func MatchExpansion(template, candidatePath string) (string, bool) {
	re, err := compileTemplate(template)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(candidatePath)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// scanPrefixDir returns the repo-relative directory that is guaranteed to
// contain every match of template, so discovery never has to walk the
// entire working tree.
func scanPrefixDir(template string) string {
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if strings.Contains(seg, Wildcard) {
			if i == 0 {
				return "."
			}
			return strings.Join(segments[:i], "/")
		}
	}
	return filepath.Dir(template)
}

// DiscoverInstancesFS walks root (a working-tree or cache-entry directory)
// and returns the sorted, deduplicated set of wildcard expansions found
// among all of the artifact's wildcard output templates.
func DiscoverInstancesFS(root string, a *Artifact) ([]string, error) {
	seen := map[string]struct{}{}
	for _, template := range a.Outputs {
		if !strings.Contains(template, Wildcard) {
			continue
		}
		prefix := scanPrefixDir(template)
		scanRoot := filepath.Join(root, filepath.FromSlash(prefix))
		err := filepath.WalkDir(scanRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if isNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if exp, ok := MatchExpansion(template, rel); ok {
				seen[exp] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, memoraerr.Wrap(memoraerr.IO, err, "scanning %q for artifact %q", scanRoot, a.Name)
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
