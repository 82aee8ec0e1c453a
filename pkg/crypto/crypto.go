// Package crypto defines the opaque capability the tree and merge layers
// depend on for encrypted name and document handling, plus a reference
// implementation. Wire format and primitive choice are not specified by the
// core; callers may substitute any implementation satisfying Crypto.
package crypto

import (
	"github.com/foliotree/foliotree/pkg/identity"
)

// Crypto is the capability the core consumes for everything key-material
// related: sealing node names, wrapping per-node content keys, and
// encrypting/decrypting document bodies. The core never inspects key
// material directly; it only carries the opaque byte strings Crypto
// produces through storage and merge.
type Crypto interface {
	// GenerateContentKey produces a fresh per-document content key, used
	// whenever a new document body (or a conflict duplicate) is created.
	GenerateContentKey() ([32]byte, error)

	// SealName encrypts name for storage in Node.EncryptedName, bound to id
	// so that a sealed name cannot be replayed onto a different node.
	SealName(id identity.ID, name string) ([]byte, error)
	// OpenName reverses SealName.
	OpenName(id identity.ID, sealed []byte) (string, error)

	// WrapContentKey wraps a freshly generated per-document content key so
	// it can be stored in Node.WrappedKey and later recovered by any device
	// holding the owner's private key. Nothing in this repository re-wraps
	// a content key for share recipients.
	WrapContentKey(owner identity.Owner, key [32]byte) ([]byte, error)
	// UnwrapContentKey reverses WrapContentKey.
	UnwrapContentKey(owner identity.Owner, wrapped []byte) ([32]byte, error)

	// SealDocument encrypts a document body under the given content key.
	SealDocument(key [32]byte, body []byte) ([]byte, error)
	// OpenDocument reverses SealDocument.
	OpenDocument(key [32]byte, sealed []byte) ([]byte, error)
}
