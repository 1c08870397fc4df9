// Package comment arranges the flat comment list of a post into reply threads.
package comment

import (
	"sort"
	"time"
)

// A Comment is a single comment as the server returns it. A comment without a
// ParentID is a top-level comment.
type Comment struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	MediaRef  string    `json:"media_ref,omitempty"`
	LikeCount int       `json:"like_count"`
	LikedByMe bool      `json:"liked_by_me"`
}

// A Node is a comment together with its replies.
type Node struct {
	Comment
	Children []*Node `json:"children"`
}

// BuildTree arranges comments into a forest of reply threads. Roots and the
// replies of every node are ordered by creation time, ties keep the input
// order.
//
// Malformed input never fails: a comment whose parent is missing from the
// batch, or is the comment itself, becomes a root. When ids repeat the last
// comment wins. In a parent cycle the member that comes first in the input
// becomes a root and the others stay below it.
func BuildTree(comments []Comment) []*Node {
	index := make(map[string]int, len(comments))
	for i, c := range comments {
		index[c.ID] = i
	}

	nodes := make([]*Node, len(comments))
	for i, c := range comments {
		if index[c.ID] == i {
			nodes[i] = &Node{Comment: c, Children: []*Node{}}
		}
	}

	var roots []*Node
	parents := make(map[*Node]*Node, len(index))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		p, ok := index[n.ParentID]
		if n.ParentID == "" || n.ParentID == n.ID || !ok {
			roots = append(roots, n)
			continue
		}
		parent := nodes[p]
		parent.Children = append(parent.Children, n)
		parents[n] = parent
	}

	roots = promoteCycles(nodes, roots, parents)
	sortNodes(roots)
	if roots == nil {
		roots = []*Node{}
	}
	return roots
}

// promoteCycles breaks parent cycles, which no root can reach. For each cycle
// the member that comes first in the input is detached from its parent and
// becomes a root.
func promoteCycles(nodes, roots []*Node, parents map[*Node]*Node) []*Node {
	seen := make(map[*Node]bool, len(nodes))
	mark := func(n *Node, _ int) {
		seen[n] = true
	}
	Walk(roots, mark)

	pos := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		if n != nil {
			pos[n] = i
		}
	}

	for _, n := range nodes {
		if n == nil || seen[n] {
			continue
		}

		// Every ancestor of an unreachable node is unreachable and has a
		// parent, so climbing ends on a cycle.
		visited := map[*Node]bool{}
		x := n
		for !visited[x] {
			visited[x] = true
			x = parents[x]
		}
		first := x
		for c := parents[x]; c != x; c = parents[c] {
			if pos[c] < pos[first] {
				first = c
			}
		}

		parent := parents[first]
		for i, c := range parent.Children {
			if c == first {
				parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
				break
			}
		}
		delete(parents, first)
		roots = append(roots, first)
		Walk([]*Node{first}, mark)
	}
	return roots
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Walk calls fn for every node depth first, parents before their children.
// depth is zero for the given nodes.
func Walk(nodes []*Node, fn func(n *Node, depth int)) {
	type item struct {
		node  *Node
		depth int
	}
	stack := make([]item, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, item{nodes[i], 0})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(it.node, it.depth)
		for i := len(it.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{it.node.Children[i], it.depth + 1})
		}
	}
}

// Count returns the number of nodes in the forest, replies included.
func Count(nodes []*Node) int {
	n := 0
	Walk(nodes, func(*Node, int) {
		n++
	})
	return n
}
