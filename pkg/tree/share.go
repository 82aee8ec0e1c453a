package tree

import (
	"github.com/foliotree/foliotree/pkg/identity"
)

// Mode is the access level granted by a share.
type Mode uint8

const (
	// ModeRead grants read-only access to a shared subtree.
	ModeRead Mode = iota
	// ModeWrite grants read/write access to a shared subtree.
	ModeWrite
)

// String renders the mode for logging and CLI output.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Stronger reports whether m grants at least as much access as other.
func (m Mode) Stronger(other Mode) bool {
	return m >= other
}

// ShareGrant records that a node has been shared with an owner at a given
// mode. Grants are never deleted from the shares map on rejection or
// downgrade; instead Removed is set so that the tombstone itself can
// participate in the metadata merge's last-writer-wins rule (a removal at a
// higher metadata_version suppresses a grant recorded at a lower one).
type ShareGrant struct {
	// With is the recipient of the share.
	With identity.Owner
	// Mode is the access level granted.
	Mode Mode
	// Version is the metadata_version at which this grant (or its removal)
	// was recorded, used to arbitrate last-writer-wins during merge.
	Version uint64
	// Removed marks this grant as rejected or superseded rather than active.
	Removed bool
}
