package repo

import (
	"bytes"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
)

// documentCacheKey identifies one (source, id) document body cache entry.
type documentCacheKey struct {
	source Source
	id     identity.ID
}

// GetDocument returns the body for id in source, falling back from Local to
// Base when no Local body exists (same fallback rule as GetMetadata).
func (t *Txn) GetDocument(source Source, id identity.ID) ([]byte, error) {
	body, ok, err := t.maybeGetDocument(source, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ferrors.New(ferrors.KindNotFound, "document not found: "+id.String())
	}
	return body, nil
}

// maybeGetDocument is like GetDocument but reports absence instead of
// erroring.
func (t *Txn) maybeGetDocument(source Source, id identity.ID) ([]byte, bool, error) {
	if source == Local {
		if body, ok, err := t.readDocumentRaw(Local, id); err != nil {
			return nil, false, err
		} else if ok {
			return body, true, nil
		}
		return t.readDocumentRaw(Base, id)
	}
	return t.readDocumentRaw(Base, id)
}

// readDocumentRaw reads directly from one source bucket, consulting and
// populating the LRU cache. Document bodies are immutable once written and
// replaced atomically, so cached copies are never stale within a process
// lifetime except via explicit cache invalidation on write/delete.
func (t *Txn) readDocumentRaw(source Source, id identity.ID) ([]byte, bool, error) {
	key := documentCacheKey{source, id}
	if cached, ok := t.repo.documentCache.Get(key); ok {
		if cached == nil {
			return nil, false, nil
		}
		return append([]byte(nil), cached.([]byte)...), true, nil
	}

	bucket := t.tx.Bucket(documentBucketName(source))
	raw := bucket.Get(id[:])
	if raw == nil {
		t.repo.documentCache.Add(key, nil)
		return nil, false, nil
	}

	body := append([]byte(nil), raw...)
	t.repo.documentCache.Add(key, body)
	return append([]byte(nil), body...), true, nil
}

// InsertDocument upserts body for id in source, with the same no-op and
// Local-to-Base collapse semantics as InsertMetadata.
func (t *Txn) InsertDocument(source Source, id identity.ID, body []byte) error {
	existing, ok, err := t.readDocumentRaw(source, id)
	if err != nil {
		return err
	}
	if ok && bytes.Equal(existing, body) {
		return nil
	}

	if source == Local {
		if base, ok, err := t.readDocumentRaw(Base, id); err != nil {
			return err
		} else if ok && bytes.Equal(base, body) {
			return t.deleteDocumentRaw(Local, id)
		}
	}

	return t.writeDocumentRaw(source, id, body)
}

// writeDocumentRaw stores body for id in source, updating the cache.
func (t *Txn) writeDocumentRaw(source Source, id identity.ID, body []byte) error {
	bucket := t.tx.Bucket(documentBucketName(source))
	if err := bucket.Put(id[:], body); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to write document body")
	}
	t.repo.documentCache.Add(documentCacheKey{source, id}, append([]byte(nil), body...))
	return nil
}

// deleteDocumentRaw removes the body for id from source, updating the
// cache.
func (t *Txn) deleteDocumentRaw(source Source, id identity.ID) error {
	bucket := t.tx.Bucket(documentBucketName(source))
	if err := bucket.Delete(id[:]); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to delete document body")
	}
	t.repo.documentCache.Add(documentCacheKey{source, id}, nil)
	return nil
}
