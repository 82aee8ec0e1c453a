package merge

import (
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// MergeMetadata performs the field-wise three-way merge of §4.E.2 for a
// node present on all three sides. kind, id, and owner are invariant across
// sides; disagreement there is a programmer error, not a mergeable
// conflict.
func MergeMetadata(base, local, remote *tree.Node) (*tree.Node, error) {
	if base.ID != local.ID || base.ID != remote.ID {
		return nil, errors.New("merge_metadata called with mismatched ids")
	}
	if base.Kind != local.Kind || base.Kind != remote.Kind {
		return nil, errors.New("merge_metadata called with disagreeing kinds")
	}
	if base.Owner != local.Owner || base.Owner != remote.Owner {
		return nil, errors.New("merge_metadata called with disagreeing owners")
	}

	result := &tree.Node{
		ID:    base.ID,
		Kind:  base.Kind,
		Owner: base.Owner,
	}

	if remote.Parent != base.Parent {
		result.Parent = remote.Parent
	} else {
		result.Parent = local.Parent
	}

	if remote.Name != base.Name {
		result.Name = remote.Name
	} else {
		result.Name = local.Name
	}

	localDeleted := local.Deleted
	if local.Deleted == base.Deleted {
		localDeleted = base.Deleted
	}
	remoteDeleted := remote.Deleted
	if remote.Deleted == base.Deleted {
		remoteDeleted = base.Deleted
	}
	result.Deleted = localDeleted || remoteDeleted

	result.MetadataVersion = maxUint64(base.MetadataVersion, local.MetadataVersion, remote.MetadataVersion)
	result.ContentVersion = maxUint64(base.ContentVersion, local.ContentVersion, remote.ContentVersion)

	if result.Kind == tree.KindLink {
		if remote.Target != base.Target {
			result.Target = remote.Target
		} else {
			result.Target = local.Target
		}
	}

	result.Shares = mergeShares(base.Shares, local.Shares, remote.Shares)

	// Opaque crypto-owned fields follow the same remote-wins-on-change rule
	// as parent/name, since they are likewise keyed by id and only ever
	// written wholesale by whichever side last touched the node.
	if string(remote.EncryptedName) != string(base.EncryptedName) {
		result.EncryptedName = remote.EncryptedName
	} else {
		result.EncryptedName = local.EncryptedName
	}
	if string(remote.WrappedKey) != string(base.WrappedKey) {
		result.WrappedKey = remote.WrappedKey
	} else {
		result.WrappedKey = local.WrappedKey
	}

	return result, nil
}

// MergeMaybeMetadata lifts MergeMetadata to the node-presence level using
// the scalar merge_maybe table. It is the per-id step of the tree merge's
// step 1. A nil *tree.Node represents absence.
func MergeMaybeMetadata(base, local, remote *tree.Node) (*tree.Node, error) {
	resolution, err := MergeMaybe(base != nil, local != nil, remote != nil)
	if err != nil {
		return nil, err
	}

	switch resolution {
	case ResolvedBase:
		return base, nil
	case ResolvedLocal:
		return local, nil
	case ResolvedRemote:
		return remote, nil
	case Conflict:
		return MergeMetadata(base, local, remote)
	case BaselessConflict:
		// No common ancestor: treat local as the pseudo-base so that the
		// same field-wise rule ("remote wins if it differs from base")
		// still applies, rather than inventing a distinct algorithm for a
		// case that only arises when the same id was independently pushed
		// and pulled back before the local device recorded it as promoted.
		return MergeMetadata(local, local, remote)
	default:
		return nil, errors.New("unhandled merge_maybe resolution")
	}
}

// mergeShares unions share grants from all three sides, keyed by grantee
// only: for each grantee the grant with the highest Version survives, and on
// equal versions remote wins over local, which wins over base. Mode is not
// part of the key, so two grants to the same grantee with different modes
// never coexist. A tombstoned grant suppresses a grant to the same grantee
// recorded at a lower version.
func mergeShares(base, local, remote map[identity.Owner]tree.ShareGrant) map[identity.Owner]tree.ShareGrant {
	result := make(map[identity.Owner]tree.ShareGrant)

	apply := func(grants map[identity.Owner]tree.ShareGrant) {
		for with, grant := range grants {
			existing, ok := result[with]
			if !ok || grant.Version >= existing.Version {
				result[with] = grant
			}
		}
	}

	apply(base)
	apply(local)
	apply(remote)

	// Tombstoned grants are kept (not deleted) so that a future merge still
	// sees the removal and does not let a stale lower-version grant from
	// some fourth device resurrect the share.
	if len(result) == 0 {
		return nil
	}
	return result
}

func maxUint64(values ...uint64) uint64 {
	var max uint64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
