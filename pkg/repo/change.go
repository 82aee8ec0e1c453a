package repo

import (
	"github.com/foliotree/foliotree/pkg/identity"
)

// ParentAndName captures the two fields a metadata change tracks for
// rename/move detection: the containing node and the display name.
type ParentAndName struct {
	Parent identity.ID
	Name   string
}

// Change describes a pending metadata difference between Local and Base for
// a single id, as returned by GetAllMetadataChanges. Old is absent exactly
// when no Base counterpart exists (the node was created locally and never
// synced).
type Change struct {
	ID         identity.ID
	Old        *ParentAndName
	New        ParentAndName
	NewDeleted bool
}
