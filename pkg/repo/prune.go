package repo

import (
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// PruneDeleted removes (Base, id) and (Local, id) pairs (metadata and body)
// for every id whose Local-view (Local shadowing Base) is deleted, provided
// no non-deleted descendant and no live link pointing at the id exists in
// that same Local view. The Base records are not checked on their own: a
// descendant or link that is live in Base but deleted in Local does not
// block pruning. (The link check preserves invariant 3 against a
// later sync seeing a dangling link; see the Open Question this resolves
// in favor of refusing pruning rather than silently orphaning the link).
// Pruning is idempotent: a second call with no intervening changes removes
// nothing.
func (t *Txn) PruneDeleted() error {
	snapshot, err := t.GetAllMetadata()
	if err != nil {
		return err
	}

	childrenOf := make(map[identity.ID][]identity.ID)
	linkTargets := make(map[identity.ID]bool)
	for id, node := range snapshot {
		if !node.IsRoot() {
			childrenOf[node.Parent] = append(childrenOf[node.Parent], id)
		}
		if node.Kind == tree.KindLink && !node.Deleted {
			linkTargets[node.Target] = true
		}
	}

	for id, node := range snapshot {
		if !node.Deleted {
			continue
		}
		if linkTargets[id] {
			continue
		}
		if hasLiveDescendant(snapshot, childrenOf, id) {
			continue
		}

		if err := t.deleteMetadataRaw(Base, id); err != nil {
			return err
		}
		if err := t.deleteMetadataRaw(Local, id); err != nil {
			return err
		}
		if err := t.deleteDocumentRaw(Base, id); err != nil {
			return err
		}
		if err := t.deleteDocumentRaw(Local, id); err != nil {
			return err
		}
	}

	return nil
}

// hasLiveDescendant reports whether any descendant of root (in snapshot) is
// non-deleted.
func hasLiveDescendant(snapshot tree.Snapshot, childrenOf map[identity.ID][]identity.ID, root identity.ID) bool {
	stack := append([]identity.ID(nil), childrenOf[root]...)
	visited := make(map[identity.ID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		node := snapshot[id]
		if node == nil {
			continue
		}
		if !node.Deleted {
			return true
		}
		stack = append(stack, childrenOf[id]...)
	}
	return false
}
