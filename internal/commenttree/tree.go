// Package commenttree keeps an issue's nested comment forest consistent with
// the backend. tree.go holds the pure forest helpers; every mutation in the
// package goes through Map or Filter so there is a single recursive walker.
package commenttree

import (
	"civicvoice/internal/model"
)

// ByID matches the node with the given id.
func ByID(id string) func(model.Comment) bool {
	return func(c model.Comment) bool { return c.ID == id }
}

// Map rebuilds the forest, replacing every node that matches with fn(node).
// Children are processed before their parent, so fn sees already rebuilt
// replies. Slices on paths without a match are returned as-is; the input is
// never written to. It returns the number of nodes fn was applied to.
func Map(nodes []model.Comment, match func(model.Comment) bool, fn func(model.Comment) model.Comment) ([]model.Comment, int) {
	var out []model.Comment
	applied := 0
	for i, node := range nodes {
		replies, n := Map(node.Replies, match, fn)
		changed := n > 0
		if changed {
			node.Replies = replies
			applied += n
		}
		if match(node) {
			node = fn(node)
			changed = true
			applied++
		}
		if changed && out == nil {
			out = make([]model.Comment, len(nodes))
			copy(out, nodes[:i])
		}
		if out != nil {
			out[i] = node
		}
	}
	if out == nil {
		return nodes, applied
	}
	return out, applied
}

// Filter removes every node for which drop returns true, wherever it sits,
// together with its whole reply subtree. Parents whose replies changed get
// ReplyCount reset to len(Replies). It returns the number of nodes removed,
// descendants included.
func Filter(nodes []model.Comment, drop func(model.Comment) bool) ([]model.Comment, int) {
	var out []model.Comment
	removed := 0
	for i, node := range nodes {
		if drop(node) {
			removed += 1 + Count(node.Replies)
			if out == nil {
				out = make([]model.Comment, 0, len(nodes))
				out = append(out, nodes[:i]...)
			}
			continue
		}
		replies, n := Filter(node.Replies, drop)
		if n > 0 {
			node.Replies = replies
			node.ReplyCount = len(replies)
			removed += n
			if out == nil {
				out = make([]model.Comment, 0, len(nodes))
				out = append(out, nodes[:i]...)
			}
		}
		if out != nil {
			out = append(out, node)
		}
	}
	if out == nil {
		return nodes, 0
	}
	return out, removed
}

// Walk visits nodes depth-first, parents before replies. Returning false from
// fn stops the walk.
func Walk(nodes []model.Comment, fn func(c model.Comment, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []model.Comment, depth int, fn func(model.Comment, int) bool) bool {
	for _, node := range nodes {
		if !fn(node, depth) {
			return false
		}
		if !walk(node.Replies, depth+1, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id.
func Find(nodes []model.Comment, id string) (model.Comment, bool) {
	var found model.Comment
	ok := false
	Walk(nodes, func(c model.Comment, _ int) bool {
		if c.ID == id {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// Count returns the number of nodes in the forest.
func Count(nodes []model.Comment) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Replies)
	}
	return n
}

// Normalize returns a deep copy with ReplyCount == len(Replies) on every node
// and non-nil Replies slices.
func Normalize(nodes []model.Comment) []model.Comment {
	out := make([]model.Comment, len(nodes))
	for i, node := range nodes {
		node.Replies = Normalize(node.Replies)
		node.ReplyCount = len(node.Replies)
		out[i] = node
	}
	return out
}

// Clone returns a deep copy of the forest.
func Clone(nodes []model.Comment) []model.Comment {
	if nodes == nil {
		return nil
	}
	out := make([]model.Comment, len(nodes))
	for i, node := range nodes {
		node.Replies = Clone(node.Replies)
		if node.ParentID != nil {
			p := *node.ParentID
			node.ParentID = &p
		}
		if node.AuthorAvatarURL != nil {
			a := *node.AuthorAvatarURL
			node.AuthorAvatarURL = &a
		}
		out[i] = node
	}
	return out
}

// Build assembles flat rows into a forest. Input order is kept at every level.
// Rows whose parent is not in the input are promoted to the top level.
func Build(flat []model.Comment) []model.Comment {
	present := make(map[string]struct{}, len(flat))
	for _, c := range flat {
		present[c.ID] = struct{}{}
	}

	children := make(map[string][]int)
	var roots []int
	for i, c := range flat {
		if c.IsTopLevel() || *c.ParentID == c.ID {
			roots = append(roots, i)
			continue
		}
		if _, ok := present[*c.ParentID]; !ok {
			roots = append(roots, i)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], i)
	}

	var assemble func(i int) model.Comment
	assemble = func(i int) model.Comment {
		node := flat[i]
		kids := children[node.ID]
		node.Replies = make([]model.Comment, 0, len(kids))
		for _, k := range kids {
			node.Replies = append(node.Replies, assemble(k))
		}
		node.ReplyCount = len(node.Replies)
		return node
	}

	out := make([]model.Comment, 0, len(roots))
	for _, i := range roots {
		out = append(out, assemble(i))
	}
	return out
}
