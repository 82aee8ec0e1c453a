package repo

import (
	"bytes"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// GetAllMetadata returns the union of Base and Local metadata, with Local
// shadowing Base per id (invariant 8).
func (t *Txn) GetAllMetadata() (tree.Snapshot, error) {
	snapshot := make(tree.Snapshot)

	if err := t.forEachMetadata(Base, func(n *tree.Node) error {
		snapshot[n.ID] = n
		return nil
	}); err != nil {
		return nil, err
	}

	if err := t.forEachMetadata(Local, func(n *tree.Node) error {
		snapshot[n.ID] = n
		return nil
	}); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// GetBaseMetadata returns the Base-only metadata table, with no Local
// shadowing. The sync coordinator uses this as the common ancestor for the
// three-way tree merge: Local's shadowed view would already include
// not-yet-pushed local edits, which must play the "local" role in the
// merge, not the "base" role.
func (t *Txn) GetBaseMetadata() (tree.Snapshot, error) {
	snapshot := make(tree.Snapshot)
	if err := t.forEachMetadata(Base, func(n *tree.Node) error {
		snapshot[n.ID] = n
		return nil
	}); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetAllMetadataChanges returns a Change for every id whose Local record
// differs from Base in parent, name, or deleted. Old is nil exactly when no
// Base counterpart exists (a locally-created node), matching §4.C.
func (t *Txn) GetAllMetadataChanges() ([]Change, error) {
	var changes []Change

	err := t.forEachMetadata(Local, func(local *tree.Node) error {
		base, ok, err := t.readMetadataRaw(Base, local.ID)
		if err != nil {
			return err
		}

		if ok {
			if base.Parent == local.Parent && base.Name == local.Name && base.Deleted == local.Deleted {
				return nil
			}
			changes = append(changes, Change{
				ID:         local.ID,
				Old:        &ParentAndName{Parent: base.Parent, Name: base.Name},
				New:        ParentAndName{Parent: local.Parent, Name: local.Name},
				NewDeleted: local.Deleted,
			})
			return nil
		}

		changes = append(changes, Change{
			ID:         local.ID,
			Old:        nil,
			New:        ParentAndName{Parent: local.Parent, Name: local.Name},
			NewDeleted: local.Deleted,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// GetAllWithDocumentChanges returns the ids whose document body differs
// between Local and Base, ignoring metadata-only diffs.
func (t *Txn) GetAllWithDocumentChanges() ([]identity.ID, error) {
	var ids []identity.ID

	bucket := t.tx.Bucket(documentBucketName(Local))
	err := bucket.ForEach(func(k, localBody []byte) error {
		var id identity.ID
		copy(id[:], k)

		base, ok, err := t.readDocumentRaw(Base, id)
		if err != nil {
			return err
		}
		if ok && bytes.Equal(base, localBody) {
			return nil
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}
