package tree

import (
	"github.com/foliotree/foliotree/pkg/identity"
)

// Snapshot is an immutable-by-convention view of a tree: every node reachable
// in a given source, keyed by id. All merge and validation logic operates on
// snapshots rather than live storage, per the teacher's own pattern of
// computing diffs and validity over in-memory entry maps rather than
// re-querying storage mid-algorithm.
type Snapshot map[identity.ID]*Node

// Get returns the node with the given id, or nil if absent.
func (s Snapshot) Get(id identity.ID) *Node {
	return s[id]
}

// Children returns the non-deleted children of parent, sorted by nothing in
// particular (callers that need determinism should sort by ID themselves).
func (s Snapshot) Children(parent identity.ID) []*Node {
	var children []*Node
	for id, node := range s {
		if id == parent {
			continue
		}
		if node.Parent == parent && !node.Deleted {
			children = append(children, node)
		}
	}
	return children
}

// Ancestors walks the parent chain starting at id (exclusive of id itself)
// up to and including the root, using a visited set to guarantee O(depth)
// behavior even in the presence of a cycle (in which case it stops once it
// revisits a node rather than looping forever).
func (s Snapshot) Ancestors(id identity.ID) []*Node {
	var ancestors []*Node
	visited := map[identity.ID]bool{id: true}

	current := s.Get(id)
	for current != nil && !current.IsRoot() {
		parent := s.Get(current.Parent)
		if parent == nil || visited[parent.ID] {
			break
		}
		ancestors = append(ancestors, parent)
		visited[parent.ID] = true
		current = parent
	}
	return ancestors
}
