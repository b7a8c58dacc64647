// Package access decides which forums a requester may see.
//
// A forum with an empty access-group set is public. Otherwise the requester
// needs at least one group in common with it. Each forum declares its own set;
// nothing is inherited from the parent, so every check is made against the
// forum itself.
package access

import (
	"slices"

	"github.com/itchan-dev/forum/internal/domain"
)

// CanAccess reports whether userGroups grants read access to forum.
func CanAccess(forum *domain.Forum, userGroups domain.Groups) bool {
	if len(forum.AccessGroups) == 0 {
		return true
	}
	for _, g := range userGroups {
		if slices.Contains(forum.AccessGroups, g) {
			return true
		}
	}
	return false
}

// GroupsOf returns the groups of a possibly anonymous user.
func GroupsOf(user *domain.User) domain.Groups {
	if user == nil {
		return nil
	}
	return user.Groups
}

// Nest arranges every forum under its parent without any filtering. A forum
// whose parent is missing is dropped. Input order is preserved among siblings,
// so callers pass forums already sorted by display order. Path is filled on
// every returned forum. The input is not modified.
func Nest(forums []domain.Forum) []*domain.Forum {
	byId := make(map[domain.ForumId]*domain.Forum, len(forums))
	for i := range forums {
		f := forums[i]
		f.Children = nil
		byId[f.Id] = &f
	}

	var roots []*domain.Forum
	for i := range forums {
		f := byId[forums[i].Id]
		if !f.ParentId.Valid {
			roots = append(roots, f)
			continue
		}
		if parent, ok := byId[f.ParentId.Int64]; ok {
			parent.Children = append(parent.Children, f)
		}
	}

	var visit func(f *domain.Forum, path []domain.ForumSlug)
	visit = func(f *domain.Forum, path []domain.ForumSlug) {
		f.Path = append(slices.Clone(path), f.Slug)
		for _, c := range f.Children {
			visit(c, f.Path)
		}
	}
	for _, r := range roots {
		visit(r, nil)
	}
	return roots
}

// Prune drops from level every forum userGroups can't access, along with its
// whole subtree. Kept forums have their Children pruned in place.
func Prune(level []*domain.Forum, userGroups domain.Groups) []*domain.Forum {
	var kept []*domain.Forum
	for _, f := range level {
		if !CanAccess(f, userGroups) {
			continue
		}
		f.Children = Prune(f.Children, userGroups)
		kept = append(kept, f)
	}
	return kept
}

// Tree is the forum index as userGroups sees it. A forum under a hidden parent
// has no place in the index even when it is accessible itself; it stays
// reachable by path and by id.
func Tree(forums []domain.Forum, userGroups domain.Groups) []*domain.Forum {
	return Prune(Nest(forums), userGroups)
}

// Flatten lists every forum of a tree in depth-first display order.
func Flatten(tree []*domain.Forum) []*domain.Forum {
	var out []*domain.Forum
	var walk func(fs []*domain.Forum)
	walk = func(fs []*domain.Forum) {
		for _, f := range fs {
			out = append(out, f)
			walk(f.Children)
		}
	}
	walk(tree)
	return out
}
