package repo

import (
	"encoding/json"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// metadataCacheKey identifies one (source, id) metadata cache entry.
type metadataCacheKey struct {
	source Source
	id     identity.ID
}

// GetMetadata returns the node for id in source. If source is Local and no
// Local record exists, it falls back to Base (invariant 8: source
// dominance). Returns ferrors.KindNotFound if absent in both.
func (t *Txn) GetMetadata(source Source, id identity.ID) (*tree.Node, error) {
	node, ok, err := t.MaybeGetMetadata(source, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ferrors.New(ferrors.KindNotFound, "metadata not found: "+id.String())
	}
	return node, nil
}

// MaybeGetMetadata is like GetMetadata but returns (nil, false, nil) instead
// of an error when the record is absent.
func (t *Txn) MaybeGetMetadata(source Source, id identity.ID) (*tree.Node, bool, error) {
	if source == Local {
		if node, ok, err := t.readMetadataRaw(Local, id); err != nil {
			return nil, false, err
		} else if ok {
			return node, true, nil
		}
		return t.readMetadataRaw(Base, id)
	}
	return t.readMetadataRaw(Base, id)
}

// readMetadataRaw reads directly from one source bucket, with no fallback,
// consulting and populating the LRU cache.
func (t *Txn) readMetadataRaw(source Source, id identity.ID) (*tree.Node, bool, error) {
	key := metadataCacheKey{source, id}
	if cached, ok := t.repo.metadataCache.Get(key); ok {
		if cached == nil {
			return nil, false, nil
		}
		return cached.(*tree.Node).Clone(), true, nil
	}

	bucket := t.tx.Bucket(metadataBucketName(source))
	raw := bucket.Get(id[:])
	if raw == nil {
		t.repo.metadataCache.Add(key, nil)
		return nil, false, nil
	}

	var node tree.Node
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, false, ferrors.Wrap(ferrors.KindIO, err, "unable to decode metadata record")
	}
	t.repo.metadataCache.Add(key, &node)
	return node.Clone(), true, nil
}

// InsertMetadata upserts node into source. It is a no-op when the stored
// node already equals node byte-for-byte. Inserting into Local a node
// byte-equal to the Base counterpart instead deletes the Local record,
// collapsing "no change" rather than storing a redundant shadow copy.
func (t *Txn) InsertMetadata(source Source, node *tree.Node) error {
	existing, ok, err := t.readMetadataRaw(source, node.ID)
	if err != nil {
		return err
	}
	if ok && existing.Equal(node) {
		return nil
	}

	if source == Local {
		if base, ok, err := t.readMetadataRaw(Base, node.ID); err != nil {
			return err
		} else if ok && base.Equal(node) {
			return t.deleteMetadataRaw(Local, node.ID)
		}
	}

	return t.writeMetadataRaw(source, node)
}

// writeMetadataRaw serializes and stores node, updating the cache.
func (t *Txn) writeMetadataRaw(source Source, node *tree.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to encode metadata record")
	}
	bucket := t.tx.Bucket(metadataBucketName(source))
	if err := bucket.Put(node.ID[:], data); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to write metadata record")
	}
	t.repo.metadataCache.Add(metadataCacheKey{source, node.ID}, node.Clone())
	return nil
}

// deleteMetadataRaw removes the record for id from source, updating the
// cache.
func (t *Txn) deleteMetadataRaw(source Source, id identity.ID) error {
	bucket := t.tx.Bucket(metadataBucketName(source))
	if err := bucket.Delete(id[:]); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to delete metadata record")
	}
	t.repo.metadataCache.Add(metadataCacheKey{source, id}, nil)
	return nil
}

// forEachMetadata iterates every record in source's metadata bucket.
func (t *Txn) forEachMetadata(source Source, fn func(*tree.Node) error) error {
	bucket := t.tx.Bucket(metadataBucketName(source))
	return bucket.ForEach(func(k, v []byte) error {
		var node tree.Node
		if err := json.Unmarshal(v, &node); err != nil {
			return ferrors.Wrap(ferrors.KindIO, err, "unable to decode metadata record")
		}
		return fn(&node)
	})
}
