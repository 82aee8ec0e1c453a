package merge

import (
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// MergeTree runs the six-step tree merge of §4.E.3 against three snapshots
// (Base, pre-merge Local, just-fetched Remote) and produces the new Local
// snapshot. A nil entry for an id in any input snapshot means that side does
// not have the node.
func MergeTree(base, local, remote tree.Snapshot) (tree.Snapshot, error) {
	ids := make(map[identity.ID]bool)
	for id := range base {
		ids[id] = true
	}
	for id := range local {
		ids[id] = true
	}
	for id := range remote {
		ids[id] = true
	}

	// Step 1: per-node merge.
	candidate := make(map[identity.ID]*tree.Node, len(ids))
	for id := range ids {
		merged, err := MergeMaybeMetadata(base[id], local[id], remote[id])
		if err != nil {
			return nil, errors.Wrapf(err, "merging node %s", id)
		}
		candidate[id] = merged.Clone()
	}

	// Step 2: delete propagation.
	propagateDeletes(candidate)

	// Step 3: cycle breaking.
	breakCycles(candidate, base, local, remote)

	// Step 4: path-conflict renaming.
	resolvePathConflicts(candidate)

	// Step 5: shared-subtree link cleanup.
	cleanupSharedSubtreeLinks(candidate)

	// Step 6: validation.
	snapshot := tree.Snapshot(candidate)
	if err := tree.Validate(snapshot, identity.NilOwner, identity.Nil); err != nil {
		var violation *tree.ViolationError
		if errors.As(err, &violation) {
			return nil, ferrors.WithID(ferrors.KindIrreconcilableConflict, err, violation.ID.String())
		}
		return nil, ferrors.Wrap(ferrors.KindIrreconcilableConflict, err, "merged tree failed validation")
	}

	return snapshot, nil
}

// propagateDeletes marks a node deleted if any ancestor in the candidate is
// deleted, per §4.E.3 step 2.
func propagateDeletes(candidate map[identity.ID]*tree.Node) {
	snapshot := tree.Snapshot(candidate)
	for id, node := range candidate {
		if node.Deleted {
			continue
		}
		for _, ancestor := range snapshot.Ancestors(id) {
			if ancestor.Deleted {
				node.Deleted = true
				break
			}
		}
	}
}

// cleanupSharedSubtreeLinks deletes, per §4.E.3 step 5, any link found
// within a subtree rooted at a node carrying an active share grant,
// enforcing invariant 4 on the merge result rather than rejecting the whole
// merge.
func cleanupSharedSubtreeLinks(candidate map[identity.ID]*tree.Node) {
	childrenOf := make(map[identity.ID][]identity.ID)
	for id, node := range candidate {
		if !node.IsRoot() {
			childrenOf[node.Parent] = append(childrenOf[node.Parent], id)
		}
	}

	for id, node := range candidate {
		if !node.HasActiveShares() {
			continue
		}
		deleteLinksInSubtree(candidate, childrenOf, id)
	}
}

func deleteLinksInSubtree(candidate map[identity.ID]*tree.Node, childrenOf map[identity.ID][]identity.ID, root identity.ID) {
	stack := append([]identity.ID(nil), childrenOf[root]...)
	visited := make(map[identity.ID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		node := candidate[id]
		if node == nil {
			continue
		}
		if node.Kind == tree.KindLink {
			node.Deleted = true
		}
		stack = append(stack, childrenOf[id]...)
	}
}
