package tree

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/identity"
)

// Node is the unit of metadata in the tree. Its Kind field determines which
// of the kind-specific fields (Target for links) are meaningful; EnsureValid
// enforces that only the fields appropriate to Kind are populated, in the
// same layered style the teacher uses to validate its own tagged-union
// entry type.
type Node struct {
	// ID is this node's stable identifier.
	ID identity.ID
	// Parent is the id of the containing node. A node whose Parent equals
	// its own ID is a root.
	Parent identity.ID
	// Kind is the tagged variant: Document, Folder, or Link.
	Kind Kind
	// Target is the id a Link node refers to. It is only meaningful when
	// Kind == KindLink and must be the zero ID otherwise.
	Target identity.ID
	// Name is the node's unicode display name. It must be non-empty and
	// free of path separators.
	Name string
	// Owner is the account that created this node. Immutable after
	// creation.
	Owner identity.Owner
	// Deleted marks this node as tombstoned. Monotonic within Local: once
	// true it cannot be locally cleared, only overwritten by a merge that
	// incorporates a remote un-delete.
	Deleted bool
	// MetadataVersion is the server-assigned monotonic version for this
	// node's metadata fields. Zero means never synced.
	MetadataVersion uint64
	// ContentVersion is the server-assigned monotonic version for this
	// node's document body. Always zero for folders and links.
	ContentVersion uint64
	// Shares is keyed by recipient so that at most one grant (active or
	// tombstoned) exists per (owner, with) pair, matching invariant 5's
	// per-owner uniqueness when combined with Target-keyed link lookups.
	Shares map[identity.Owner]ShareGrant
	// EncryptedName and WrappedKey are opaque to the tree and merge layers;
	// they are produced and consumed only by the crypto capability, but are
	// carried here because they are keyed by ID like every other node
	// field and so must travel through storage and merge untouched.
	EncryptedName []byte
	WrappedKey    []byte
}

// pathSeparators are the characters disallowed in a Name.
const pathSeparators = "/\\"

// IsRoot reports whether this node is a root (self-parented).
func (n *Node) IsRoot() bool {
	return n.Parent == n.ID
}

// Clone returns a deep copy of the node, suitable for mutation without
// aliasing the receiver's maps or slices.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	if n.Shares != nil {
		clone.Shares = make(map[identity.Owner]ShareGrant, len(n.Shares))
		for k, v := range n.Shares {
			clone.Shares[k] = v
		}
	}
	if n.EncryptedName != nil {
		clone.EncryptedName = append([]byte(nil), n.EncryptedName...)
	}
	if n.WrappedKey != nil {
		clone.WrappedKey = append([]byte(nil), n.WrappedKey...)
	}
	return &clone
}

// Equal reports whether two nodes are byte-for-byte identical, which is the
// comparison the repo uses for its no-op/collapse insert semantics.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.ID != other.ID || n.Parent != other.Parent || n.Kind != other.Kind ||
		n.Target != other.Target || n.Name != other.Name || n.Owner != other.Owner ||
		n.Deleted != other.Deleted || n.MetadataVersion != other.MetadataVersion ||
		n.ContentVersion != other.ContentVersion {
		return false
	}
	if string(n.EncryptedName) != string(other.EncryptedName) {
		return false
	}
	if string(n.WrappedKey) != string(other.WrappedKey) {
		return false
	}
	if len(n.Shares) != len(other.Shares) {
		return false
	}
	for with, grant := range n.Shares {
		if otherGrant, ok := other.Shares[with]; !ok || otherGrant != grant {
			return false
		}
	}
	return true
}

// HasActiveShares reports whether n carries any non-tombstoned share grant.
// Invariant checks must use this rather than len(n.Shares) > 0, since a
// removed grant is kept in the map (not deleted) so that a later merge does
// not let a stale lower-version grant from another device resurrect it.
func (n *Node) HasActiveShares() bool {
	for _, grant := range n.Shares {
		if !grant.Removed {
			return true
		}
	}
	return false
}

// EnsureValid performs the per-node structural checks: non-empty name, no
// path separators, and field combinations valid for the node's kind.
// Cross-node invariants (acyclicity, name uniqueness, link rules,
// permissions) are the tree validator's responsibility, not this method's.
func (n *Node) EnsureValid() error {
	if n == nil {
		return errors.New("nil node")
	}
	if n.ID.IsNil() {
		return errors.New("node has nil id")
	}

	// Root nodes get the same name checks as any other node.
	if n.Name == "" {
		return errors.New("node has empty name")
	}
	if strings.ContainsAny(n.Name, pathSeparators) {
		return errors.New("node name contains a path separator")
	}

	switch n.Kind {
	case KindDocument:
		if !n.Target.IsNil() {
			return errors.New("non-nil link target on document node")
		}
	case KindFolder:
		if !n.Target.IsNil() {
			return errors.New("non-nil link target on folder node")
		}
		if n.ContentVersion != 0 {
			return errors.New("non-zero content version on folder node")
		}
	case KindLink:
		if n.Target.IsNil() {
			return errors.New("link node with nil target")
		}
		if n.Target == n.ID {
			return errors.New("link node targets itself")
		}
		if n.ContentVersion != 0 {
			return errors.New("non-zero content version on link node")
		}
	default:
		return errors.Errorf("unrecognized node kind: %d", n.Kind)
	}

	return nil
}
