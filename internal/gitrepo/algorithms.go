// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gitrepo

import "github.com/maruel/memora/internal/memoraerr"

// selectExtreme finds the unique element m of objects such that leq(o, m)
// holds for every other element o — i.e. the maximum under the partial
// order leq. Shared between Youngest (leq = IsAncestor) and Oldest (leq =
// flipped IsAncestor) so both ExecRepo and any fake Repo get identical
// semantics for free.
func selectExtreme(objects []ObjectID, leq func(a, b ObjectID) (bool, error)) (ObjectID, error) {
	if len(objects) == 0 {
		return "", ErrEmptySet
	}
	unique := dedupe(objects)
	if len(unique) == 1 {
		return unique[0], nil
	}
	for _, candidate := range unique {
		isMax := true
		for _, other := range unique {
			if other == candidate {
				continue
			}
			ok, err := leq(other, candidate)
			if err != nil {
				return "", err
			}
			if !ok {
				isMax = false
				break
			}
		}
		if isMax {
			return candidate, nil
		}
	}
	return "", memoraerr.New(memoraerr.Incomparable, "no single maximum among %d pairwise-incomparable objects", len(unique))
}

func dedupe(objects []ObjectID) []ObjectID {
	seen := make(map[ObjectID]struct{}, len(objects))
	out := make([]ObjectID, 0, len(objects))
	for _, o := range objects {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// oldestCommonDescendant computes the minimum (by oldestFn) of the
// intersection of descendantsFn(o) over all o in objects, short-circuiting
// to (zero, false, nil) as soon as the running intersection is empty.
func oldestCommonDescendant(
	objects []ObjectID,
	descendantsFn func(ObjectID) (map[ObjectID]struct{}, error),
	oldestFn func([]ObjectID) (ObjectID, error),
) (ObjectID, bool, error) {
	if len(objects) == 0 {
		return "", false, nil
	}
	var inter map[ObjectID]struct{}
	for i, o := range objects {
		d, err := descendantsFn(o)
		if err != nil {
			return "", false, err
		}
		if i == 0 {
			inter = d
		} else {
			for k := range inter {
				if _, ok := d[k]; !ok {
					delete(inter, k)
				}
			}
		}
		if len(inter) == 0 {
			return "", false, nil
		}
	}
	ids := make([]ObjectID, 0, len(inter))
	for k := range inter {
		ids = append(ids, k)
	}
	oldest, err := oldestFn(ids)
	if err != nil {
		return "", false, err
	}
	return oldest, true, nil
}
