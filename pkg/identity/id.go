// Package identity provides the stable identifier, owner, and version
// primitives shared by the tree, repo, merge, and sync packages.
package identity

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/encoding"
)

// ID is a 128-bit opaque identifier, globally unique and assigned once at
// creation. It is never reused and carries no semantic content beyond
// identity.
type ID [16]byte

// Nil is the zero-value ID, used as a sentinel in contexts (such as the
// mutated-node argument of tree.Validate when no single node is being
// mutated) where no identifier is meaningful.
var Nil ID

// NewID generates a new random ID using a version 4 UUID.
func NewID() ID {
	return ID(uuid.New())
}

// String renders the ID using Base62.
func (id ID) String() string {
	return encoding.EncodeBase62(id[:])
}

// ParseID parses a Base62-encoded ID produced by String.
func ParseID(s string) (ID, error) {
	decoded, err := encoding.DecodeBase62(s)
	if err != nil {
		return ID{}, errors.Wrap(err, "unable to decode id")
	}
	if len(decoded) != 16 {
		return ID{}, errors.New("decoded id has incorrect length")
	}
	var id ID
	copy(id[:], decoded)
	return id, nil
}

// IsNil returns whether or not the ID is the zero value.
func (id ID) IsNil() bool {
	return id == Nil
}
