// Package sharing implements §4.G: issuing and rejecting share grants,
// turning inbound shares into first-class Link nodes, and deriving
// permission by walking a node's ancestry.
package sharing

import (
	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

// Share appends a grant of mode to with on id, on behalf of actor. It is
// rejected if id is a root, if actor lacks permission (invariant 9), or if
// an active grant to with already exists at an equal or stronger mode.
// version should be the node's current metadata_version plus the server
// round-trip the caller is about to perform; callers not yet synced may
// pass the node's existing MetadataVersion.
func Share(txn *repo.Txn, actor identity.Owner, id identity.ID, with identity.Owner, mode tree.Mode, version uint64) error {
	node, err := txn.GetMetadata(repo.Local, id)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return ferrors.New(ferrors.KindRootModification, "a root node cannot be shared")
	}
	if with == node.Owner {
		return ferrors.New(ferrors.KindInvalidArgument, "cannot share a node with its own owner")
	}
	if existing, ok := node.Shares[with]; ok && !existing.Removed && existing.Mode.Stronger(mode) {
		return ferrors.New(ferrors.KindInvalidArgument, "an equal or stronger grant to this recipient already exists")
	}

	updated := node.Clone()
	if updated.Shares == nil {
		updated.Shares = make(map[identity.Owner]tree.ShareGrant)
	}
	updated.Shares[with] = tree.ShareGrant{With: with, Mode: mode, Version: version}

	return commitMutation(txn, actor, updated)
}

// RejectShare marks account's grant on id as removed, from the recipient's
// own local view. Rejecting a share targeting yourself is always permitted,
// regardless of ownership of id, so this bypasses the ownership/write-grant
// check that every other mutation goes through. If a link owned by account
// pointing at id exists locally, it is deleted as well.
func RejectShare(txn *repo.Txn, account identity.Owner, id identity.ID) error {
	node, err := txn.GetMetadata(repo.Local, id)
	if err != nil {
		return err
	}
	grant, ok := node.Shares[account]
	if !ok || grant.Removed {
		return ferrors.New(ferrors.KindInvalidArgument, "no active share to reject")
	}

	updated := node.Clone()
	updated.Shares[account] = tree.ShareGrant{With: account, Mode: grant.Mode, Version: grant.Version, Removed: true}

	snapshot, err := txn.GetAllMetadata()
	if err != nil {
		return err
	}
	snapshot[id] = updated

	for linkID, candidate := range snapshot {
		if candidate.Kind == tree.KindLink && candidate.Owner == account && candidate.Target == id && !candidate.Deleted {
			deletedLink := candidate.Clone()
			deletedLink.Deleted = true
			snapshot[linkID] = deletedLink
		}
	}

	// actor is the nil owner here: rejection of one's own share grant is an
	// account-local bookkeeping operation, not subject to invariant 9.
	if err := tree.Validate(snapshot, identity.NilOwner, identity.Nil); err != nil {
		return wrapViolation(err)
	}
	for changedID, changedNode := range snapshot {
		if changedID == id || (changedNode.Kind == tree.KindLink && changedNode.Owner == account && changedNode.Target == id) {
			if err := txn.InsertMetadata(repo.Local, changedNode); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateLink creates a Link node under parent pointing at target, owned by
// actor, absorbing the corresponding pending share (it stops appearing in
// PendingShares once the link exists, since that is a derived query, not
// separate state).
func CreateLink(txn *repo.Txn, actor identity.Owner, parent identity.ID, target identity.ID, name string) (*tree.Node, error) {
	link := &tree.Node{
		ID: identity.NewID(), Parent: parent, Kind: tree.KindLink,
		Target: target, Name: name, Owner: actor,
	}
	if err := commitMutation(txn, actor, link); err != nil {
		return nil, err
	}
	return link, nil
}

// PendingShares returns the nodes shared to account for which no local,
// non-deleted link exists and which are not marked rejected.
func PendingShares(txn *repo.Txn, account identity.Owner) ([]*tree.Node, error) {
	snapshot, err := txn.GetAllMetadata()
	if err != nil {
		return nil, err
	}

	linked := make(map[identity.ID]bool)
	for _, node := range snapshot {
		if node.Kind == tree.KindLink && node.Owner == account && !node.Deleted {
			linked[node.Target] = true
		}
	}

	var pending []*tree.Node
	for id, node := range snapshot {
		grant, ok := node.Shares[account]
		if !ok || grant.Removed {
			continue
		}
		if linked[id] {
			continue
		}
		pending = append(pending, node)
	}
	return pending, nil
}

// commitMutation applies updated to the repo's Local layer after validating
// the whole tree with updated in place, gating the mutation on invariant 9
// for actor.
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

// wrapViolation maps a tree.ViolationError to the matching ferrors.Kind so
// that callers can branch on the taxonomy rather than on tree package
// sentinels.
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
