// Package ops implements the tree's user-facing mutating operations —
// create, move, rename, delete — named in spec.md §3's node lifecycle
// ("Created... Mutated: move, rename, toggle deleted...") but, unlike
// sharing (§4.G), never broken out into their own named component. Each
// operation follows the same load-clone-validate-commit shape as
// pkg/sharing's mutations: load the current Local view, clone and mutate the
// one node in question, validate the whole tree with it in place, and write
// back only on success.
package ops

import (
	"github.com/foliotree/foliotree/pkg/crypto"
	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

// Create inserts a new node of kind under parent, owned by actor, appearing
// in Local only with both versions at zero (§3 "Created... → appears in
// Local only, versions = 0"). For a Document, body is sealed under a freshly
// generated content key and written as the node's initial document body; for
// a Folder or Link, body is ignored (pass nil).
func Create(txn *repo.Txn, cryptoCapability crypto.Crypto, actor identity.Owner, parent identity.ID, kind tree.Kind, name string, body []byte) (*tree.Node, error) {
	id := identity.NewID()

	encryptedName, err := cryptoCapability.SealName(id, name)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.KindCrypto, err, "unable to seal node name")
	}

	node := &tree.Node{
		ID:            id,
		Parent:        parent,
		Kind:          kind,
		Name:          name,
		Owner:         actor,
		EncryptedName: encryptedName,
	}

	if kind == tree.KindDocument {
		key, err := cryptoCapability.GenerateContentKey()
		if err != nil {
			return nil, ferrors.Wrap(ferrors.KindCrypto, err, "unable to generate content key")
		}
		wrapped, err := cryptoCapability.WrapContentKey(actor, key)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.KindCrypto, err, "unable to wrap content key")
		}
		node.WrappedKey = wrapped

		sealed, err := cryptoCapability.SealDocument(key, body)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.KindCrypto, err, "unable to seal document body")
		}
		if err := commitMutation(txn, actor, node); err != nil {
			return nil, err
		}
		if err := txn.InsertDocument(repo.Local, id, sealed); err != nil {
			return nil, err
		}
		return node, nil
	}

	if err := commitMutation(txn, actor, node); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateRoot creates a new self-parented root node owned by actor. Each
// account typically has exactly one root, created once when a device first
// bootstraps its repo; Create cannot produce one since a root's id must
// equal its own Parent, which is not known until the id is generated.
func CreateRoot(txn *repo.Txn, actor identity.Owner, name string) (*tree.Node, error) {
	id := identity.NewID()
	node := &tree.Node{ID: id, Parent: id, Kind: tree.KindFolder, Name: name, Owner: actor}
	if err := commitMutation(txn, actor, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Move changes id's parent to newParent, gated on invariant 9 (actor must
// own id or hold a Write grant over it) and, via validation, on
// tree-ness/name-uniqueness at the destination. Roots cannot be moved
// (invariant 6).
func Move(txn *repo.Txn, actor identity.Owner, id identity.ID, newParent identity.ID) error {
	node, err := txn.GetMetadata(repo.Local, id)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return ferrors.New(ferrors.KindRootModification, "a root node cannot be moved")
	}

	updated := node.Clone()
	updated.Parent = newParent
	return commitMutation(txn, actor, updated)
}

// Rename changes id's display name (and, if a crypto capability is
// provided, its sealed name), gated on invariant 9.
func Rename(txn *repo.Txn, cryptoCapability crypto.Crypto, actor identity.Owner, id identity.ID, newName string) error {
	node, err := txn.GetMetadata(repo.Local, id)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return ferrors.New(ferrors.KindRootModification, "a root node cannot be renamed")
	}

	updated := node.Clone()
	updated.Name = newName
	if cryptoCapability != nil {
		encryptedName, err := cryptoCapability.SealName(id, newName)
		if err != nil {
			return ferrors.Wrap(ferrors.KindCrypto, err, "unable to seal node name")
		}
		updated.EncryptedName = encryptedName
	}
	return commitMutation(txn, actor, updated)
}

// Delete tombstones id (sets Deleted), gated on invariant 9. Deletion is
// monotonic within Local (invariant 7): Delete on an already-deleted node is
// a no-op success, and nothing ever clears Deleted locally.
func Delete(txn *repo.Txn, actor identity.Owner, id identity.ID) error {
	node, err := txn.GetMetadata(repo.Local, id)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return ferrors.New(ferrors.KindRootModification, "a root node cannot be deleted")
	}
	if node.Deleted {
		return nil
	}

	updated := node.Clone()
	updated.Deleted = true
	return commitMutation(txn, actor, updated)
}

// commitMutation applies updated to the repo's Local layer after validating
// the whole tree with updated in place, gating the mutation on invariant 9
// for actor. It is a copy of pkg/sharing's helper of the same name, and
// maps validation failures to the same Kinds through an identical
// wrapViolation.
func commitMutation(txn *repo.Txn, actor identity.Owner, updated *tree.Node) error {
	snapshot, err := txn.GetAllMetadata()
	if err != nil {
		return err
	}
	snapshot[updated.ID] = updated

	if err := tree.Validate(snapshot, actor, updated.ID); err != nil {
		return wrapViolation(err)
	}
	return txn.InsertMetadata(repo.Local, updated)
}

// wrapViolation maps a tree.ViolationError to the matching ferrors.Kind,
// identical to pkg/sharing's helper of the same name.
func wrapViolation(err error) error {
	violation, ok := err.(*tree.ViolationError)
	if !ok {
		return ferrors.Wrap(ferrors.KindInvalidArgument, err, "tree validation failed")
	}
	switch violation.Cause {
	case tree.ErrPermissionDenied:
		return ferrors.WithID(ferrors.KindPermissionDenied, err, violation.ID.String())
	case tree.ErrRootModification:
		return ferrors.WithID(ferrors.KindRootModification, err, violation.ID.String())
	case tree.ErrSharedSubtreeLink:
		return ferrors.WithID(ferrors.KindSharedSubtreeConflict, err, violation.ID.String())
	default:
		return ferrors.WithID(ferrors.KindInvalidArgument, err, violation.ID.String())
	}
}
