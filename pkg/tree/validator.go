package tree

import (
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/identity"
)

// Kind taxonomy for errors returned by the tree package. These mirror the
// kinds of the overall error taxonomy but are package-local so that tree can
// be imported without pulling in the top-level error package; callers that
// need the unified taxonomy wrap these with the appropriate Kind.
var (
	// ErrCycle indicates that following parent pointers never reaches a root.
	ErrCycle = errors.New("cycle detected in parent chain")
	// ErrDuplicateName indicates two non-deleted siblings share a name.
	ErrDuplicateName = errors.New("duplicate name among non-deleted siblings")
	// ErrLinkToLink indicates a link whose target is itself a link.
	ErrLinkToLink = errors.New("link targets another link")
	// ErrLinkToOwned indicates a link whose target is owned by the linker.
	ErrLinkToOwned = errors.New("link targets a node owned by the link's owner")
	// ErrLinkToMissing indicates a link whose target does not exist.
	ErrLinkToMissing = errors.New("link targets a nonexistent node")
	// ErrSharedSubtreeLink indicates a link inside a subtree shared to
	// another user.
	ErrSharedSubtreeLink = errors.New("link found inside shared subtree")
	// ErrDuplicateLink indicates more than one non-deleted link exists for
	// the same (owner, target) pair.
	ErrDuplicateLink = errors.New("duplicate link for owner and target")
	// ErrRootModification indicates an attempted mutation of a root node.
	ErrRootModification = errors.New("root node cannot be modified")
	// ErrPermissionDenied indicates the acting owner lacks write access.
	ErrPermissionDenied = errors.New("permission denied")
)

// ViolationError wraps a validator failure with the offending node id.
type ViolationError struct {
	ID    identity.ID
	Cause error
}

// Error implements the error interface.
func (v *ViolationError) Error() string {
	return v.Cause.Error() + ": " + v.ID.String()
}

// Unwrap allows errors.Is/errors.As to see through to Cause.
func (v *ViolationError) Unwrap() error {
	return v.Cause
}

// Validate checks invariants 1–6 and 9 against the given snapshot. It is
// pure with respect to the snapshot and returns the first violation found,
// or nil if the snapshot is valid. It costs O(N·d) per call, where d is the
// depth of the tree: every node's full ancestor chain is walked, bounded by
// a visited set, with no sharing of work between nodes; every sibling group
// is scanned once for name collisions.
//
// If actor is not the nil owner, invariant 9 is additionally checked for
// mutatedID: the mutation is permitted only if actor owns mutatedID or an
// ancestor of mutatedID carries a Write grant to actor. Passing the nil
// owner (identity.NilOwner) skips the permission check, which is
// appropriate when validating a snapshot as a whole rather than gating a
// specific mutation.
func Validate(snapshot Snapshot, actor identity.Owner, mutatedID identity.ID) error {
	for id, node := range snapshot {
		if node == nil {
			continue
		}

		// Invariant 1: tree-ness. Roots self-parent; every other node must
		// reach a root in finite steps.
		if !node.IsRoot() {
			if err := ensureReachesRoot(snapshot, id); err != nil {
				return err
			}
		}

		// Invariant 3: no links to links / no links to owned; link target
		// must exist. A tombstoned link is exempt, matching invariant 5's
		// treatment: it is no longer a live reference, only a deletion
		// record awaiting propagation.
		if node.Kind == KindLink && !node.Deleted {
			target := snapshot.Get(node.Target)
			if target == nil {
				return &ViolationError{id, ErrLinkToMissing}
			}
			if target.Kind == KindLink {
				return &ViolationError{id, ErrLinkToLink}
			}
			if target.Owner == node.Owner {
				return &ViolationError{id, ErrLinkToOwned}
			}
		}

		// Invariant 6: root immutability. A root cannot be deleted or
		// shared (rename/move are meaningless for a self-parented node but
		// are also rejected at the mutation-gate level in the sharing and
		// tree-mutation APIs).
		if node.IsRoot() {
			if node.Deleted {
				return &ViolationError{id, ErrRootModification}
			}
			if node.HasActiveShares() {
				return &ViolationError{id, ErrRootModification}
			}
		}
	}

	// Invariant 2: name uniqueness among non-deleted siblings.
	if err := validateNameUniqueness(snapshot); err != nil {
		return err
	}

	// Invariant 5: at most one non-deleted link per (owner, target) pair.
	if err := validateLinkCardinality(snapshot); err != nil {
		return err
	}

	// Invariant 4: shared-subtree disjointness.
	if err := validateSharedSubtrees(snapshot); err != nil {
		return err
	}

	// Invariant 9: permission gate for the node being mutated, if any.
	if !mutatedID.IsNil() && actor != identity.NilOwner {
		if err := ensurePermitted(snapshot, actor, mutatedID); err != nil {
			return err
		}
	}

	return nil
}

// ensureReachesRoot walks id's parent chain, using a visited set to detect
// cycles in O(depth) time.
func ensureReachesRoot(snapshot Snapshot, id identity.ID) error {
	visited := map[identity.ID]bool{id: true}
	current := snapshot.Get(id)
	for {
		if current == nil {
			return &ViolationError{id, ErrCycle}
		}
		if current.IsRoot() {
			return nil
		}
		if visited[current.Parent] {
			return &ViolationError{id, ErrCycle}
		}
		visited[current.Parent] = true
		current = snapshot.Get(current.Parent)
	}
}

// validateNameUniqueness groups non-deleted nodes by parent and checks for
// duplicate names within each group.
func validateNameUniqueness(snapshot Snapshot) error {
	type siblingKey struct {
		parent identity.ID
		name   string
	}
	seen := make(map[siblingKey]identity.ID)
	for id, node := range snapshot {
		if node.Deleted || node.IsRoot() {
			continue
		}
		key := siblingKey{node.Parent, node.Name}
		if existing, ok := seen[key]; ok && existing != id {
			return &ViolationError{id, ErrDuplicateName}
		}
		seen[key] = id
	}
	return nil
}

// validateLinkCardinality checks invariant 5: at most one non-deleted link
// per (owner, target) pair.
func validateLinkCardinality(snapshot Snapshot) error {
	type linkKey struct {
		owner  identity.Owner
		target identity.ID
	}
	seen := make(map[linkKey]identity.ID)
	for id, node := range snapshot {
		if node.Kind != KindLink || node.Deleted {
			continue
		}
		key := linkKey{node.Owner, node.Target}
		if existing, ok := seen[key]; ok && existing != id {
			return &ViolationError{id, ErrDuplicateLink}
		}
		seen[key] = id
	}
	return nil
}

// validateSharedSubtrees checks invariant 4: within any subtree reachable
// from a node shared to user U, there are no Link nodes.
func validateSharedSubtrees(snapshot Snapshot) error {
	// Build a child index once so the descendant walk below is O(N) total
	// rather than O(N) per shared node.
	childrenOf := make(map[identity.ID][]identity.ID)
	for id, node := range snapshot {
		if !node.IsRoot() {
			childrenOf[node.Parent] = append(childrenOf[node.Parent], id)
		}
	}

	for id, node := range snapshot {
		if !node.HasActiveShares() {
			continue
		}
		if err := ensureNoLinksInSubtree(snapshot, childrenOf, id); err != nil {
			return err
		}
	}
	return nil
}

// ensureNoLinksInSubtree performs an iterative walk of the subtree rooted at
// id, failing if any link node is found.
func ensureNoLinksInSubtree(snapshot Snapshot, childrenOf map[identity.ID][]identity.ID, root identity.ID) error {
	stack := append([]identity.ID(nil), childrenOf[root]...)
	visited := make(map[identity.ID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		node := snapshot.Get(id)
		if node == nil {
			continue
		}
		if node.Kind == KindLink && !node.Deleted {
			return &ViolationError{id, ErrSharedSubtreeLink}
		}
		stack = append(stack, childrenOf[id]...)
	}
	return nil
}

// ensurePermitted checks invariant 9 for a mutation targeting id: the actor
// must own id, or id itself or an ancestor of id (walked through parent)
// must carry a Write grant to actor. Own-owned ancestors grant implicit
// Write. Checking id itself (not just strict ancestors) means a directly
// shared node's grant applies to the node that was shared, not only its
// descendants.
func ensurePermitted(snapshot Snapshot, actor identity.Owner, id identity.ID) error {
	node := snapshot.Get(id)
	if node == nil {
		return nil
	}
	if node.Owner == actor {
		return nil
	}

	if node.IsRoot() {
		return &ViolationError{id, ErrPermissionDenied}
	}

	for _, ancestor := range append([]*Node{node}, snapshot.Ancestors(id)...) {
		if ancestor.Owner == actor {
			return nil
		}
		if grant, ok := ancestor.Shares[actor]; ok && !grant.Removed && grant.Mode == ModeWrite {
			return nil
		}
	}

	return &ViolationError{id, ErrPermissionDenied}
}
