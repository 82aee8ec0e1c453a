package sync

import (
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/merge"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

// mergeAndCommit runs the tree merge (§4.E) and, for any document whose
// body was independently changed on both sides, the document merge
// (§4.E.4), then writes the resulting snapshot and bodies to Local. It is
// the single caller of merge.MergeTree, run inside the repo's write
// transaction so that a failed merge leaves Base and Local untouched.
func (c *Coordinator) mergeAndCommit(txn *repo.Txn, remoteSnapshot tree.Snapshot, remoteBodies map[identity.ID][]byte) error {
	base, err := txn.GetBaseMetadata()
	if err != nil {
		return err
	}
	local, err := txn.GetAllMetadata()
	if err != nil {
		return err
	}

	merged, err := merge.MergeTree(base, local, remoteSnapshot)
	if err != nil {
		return err
	}

	existingNames := make(map[identity.ID]map[string]bool)
	for _, node := range merged {
		if existingNames[node.Parent] == nil {
			existingNames[node.Parent] = make(map[string]bool)
		}
		existingNames[node.Parent][node.Name] = true
	}

	for id, node := range merged {
		if node.Kind != tree.KindDocument || node.Deleted {
			continue
		}
		remoteCipher, ok := remoteBodies[id]
		if !ok {
			continue
		}
		remoteNode := remoteSnapshot[id]
		baseNode := base[id]
		localNode := local[id]

		// Both sides touched the body independently: resolve via the
		// mergeable-text rule or the duplicate-on-conflict fallback.
		if baseNode != nil && localNode != nil &&
			localNode.ContentVersion != baseNode.ContentVersion &&
			remoteNode.ContentVersion != baseNode.ContentVersion {
			if err := c.resolveDocumentConflict(txn, merged, existingNames, node, baseNode, localNode, remoteCipher); err != nil {
				return err
			}
			continue
		}

		// Only remote changed (or the node is new to this device): remote's
		// content version won the metadata merge outright, so its body must
		// be persisted locally as-is.
		if node.ContentVersion == remoteNode.ContentVersion {
			if err := txn.InsertDocument(repo.Local, id, remoteCipher); err != nil {
				return err
			}
		}
	}

	for _, node := range merged {
		if err := txn.InsertMetadata(repo.Local, node); err != nil {
			return err
		}
	}
	return nil
}

// resolveDocumentConflict decrypts all three sides of a conflicted document
// body and either three-way merges them in place (mergeable extensions) or
// keeps remote's body under node's id and spins off a new duplicate node
// holding local's body (§4.E.4's non-mergeable fallback).
func (c *Coordinator) resolveDocumentConflict(
	txn *repo.Txn,
	merged tree.Snapshot,
	existingNames map[identity.ID]map[string]bool,
	node, baseNode, localNode *tree.Node,
	remoteCipher []byte,
) error {
	key, err := c.crypto.UnwrapContentKey(c.account, node.WrappedKey)
	if err != nil {
		return err
	}

	baseCipher, err := txn.GetDocument(repo.Base, node.ID)
	if err != nil {
		return err
	}
	localCipher, err := txn.GetDocument(repo.Local, node.ID)
	if err != nil {
		return err
	}

	baseBody, err := c.crypto.OpenDocument(key, baseCipher)
	if err != nil {
		return err
	}
	localBody, err := c.crypto.OpenDocument(key, localCipher)
	if err != nil {
		return err
	}
	remoteBody, err := c.crypto.OpenDocument(key, remoteCipher)
	if err != nil {
		return err
	}

	if merge.IsMergeableText(node.Name) {
		mergedBody, err := merge.MergeDocument(baseBody, localBody, remoteBody)
		if err != nil {
			return err
		}
		sealed, err := c.crypto.SealDocument(key, mergedBody)
		if err != nil {
			return err
		}
		return txn.InsertDocument(repo.Local, node.ID, sealed)
	}

	// Non-mergeable extension: remote's body stays under the original id,
	// local's body moves to a new duplicate node so neither edit is lost.
	if err := txn.InsertDocument(repo.Local, node.ID, remoteCipher); err != nil {
		return err
	}

	siblingNames := existingNames[node.Parent]
	if siblingNames == nil {
		siblingNames = make(map[string]bool)
	}
	duplicate := merge.DuplicateForConflict(node, siblingNames)

	duplicateKey, err := c.crypto.GenerateContentKey()
	if err != nil {
		return err
	}
	wrapped, err := c.crypto.WrapContentKey(duplicate.Owner, duplicateKey)
	if err != nil {
		return err
	}
	duplicate.WrappedKey = wrapped

	sealedLocal, err := c.crypto.SealDocument(duplicateKey, localBody)
	if err != nil {
		return err
	}
	if err := txn.InsertDocument(repo.Local, duplicate.ID, sealedLocal); err != nil {
		return err
	}

	merged[duplicate.ID] = duplicate
	existingNames[duplicate.Parent][duplicate.Name] = true
	return nil
}
