package repo

import (
	"time"

	"github.com/golang/groupcache/lru"
	bolt "go.etcd.io/bbolt"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/logging"
)

// Bucket names. One bucket per (table, source) pair, plus a meta bucket for
// account identity and high-water-mark state, matching the on-disk layout
// of §6: "two logical tables per source... plus a small meta table."
var (
	bucketMetadataBase  = []byte("metadata.base")
	bucketMetadataLocal = []byte("metadata.local")
	bucketDocumentsBase = []byte("documents.base")
	bucketDocumentsLocal = []byte("documents.local")
	bucketMeta          = []byte("meta")
)

// metadataCacheSize and documentCacheSize bound the in-memory LRU caches
// that front bbolt reads for hot paths like repeated validator ancestor
// walks within a single transaction.
const (
	metadataCacheSize = 4096
	documentCacheSize = 256
)

// Repo is the dual-source metadata and document store. It wraps a single
// bbolt database file and is safe for concurrent use: bbolt natively
// enforces single-writer/multi-reader semantics, and Repo adds small LRU
// read caches on top.
type Repo struct {
	db     *bolt.DB
	logger *logging.Logger

	metadataCache *lru.Cache
	documentCache *lru.Cache
}

// Open opens (creating if necessary) a bbolt-backed repo at path.
func Open(path string, logger *logging.Logger) (*Repo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, ferrors.Wrap(ferrors.KindIO, err, "unable to open repo database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketMetadataBase, bucketMetadataLocal, bucketDocumentsBase, bucketDocumentsLocal, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, ferrors.Wrap(ferrors.KindIO, err, "unable to initialize repo buckets")
	}

	return &Repo{
		db:            db,
		logger:        logger,
		metadataCache: lru.New(metadataCacheSize),
		documentCache: lru.New(documentCacheSize),
	}, nil
}

// Close closes the underlying database.
func (r *Repo) Close() error {
	if err := r.db.Close(); err != nil {
		return ferrors.Wrap(ferrors.KindIO, err, "unable to close repo database")
	}
	return nil
}

// Txn is a single bbolt transaction scoped to one exclusive write capability
// (for Update) or a consistent read snapshot (for View). Every public
// mutating API on the tree/sharing packages takes a *Txn so that validation
// can run before the underlying bbolt transaction commits.
type Txn struct {
	repo *Repo
	tx   *bolt.Tx
}

// Update runs fn inside a writable transaction. If fn returns an error (or
// panics), the underlying bbolt transaction is rolled back.
func (r *Repo) Update(fn func(*Txn) error) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return fn(&Txn{repo: r, tx: tx})
	})
	if err != nil {
		// The transaction's writes were discarded, but the caches may still
		// hold them; drop the caches so later reads go back to bbolt.
		r.metadataCache = lru.New(metadataCacheSize)
		r.documentCache = lru.New(documentCacheSize)
		if fe, ok := err.(*ferrors.Error); ok {
			return fe
		}
		return ferrors.Wrap(ferrors.KindIO, err, "repo update failed")
	}
	return nil
}

// View runs fn inside a read-only transaction.
func (r *Repo) View(fn func(*Txn) error) error {
	err := r.db.View(func(tx *bolt.Tx) error {
		return fn(&Txn{repo: r, tx: tx})
	})
	if err != nil {
		if fe, ok := err.(*ferrors.Error); ok {
			return fe
		}
		return ferrors.Wrap(ferrors.KindIO, err, "repo view failed")
	}
	return nil
}

// metadataBucketName returns the bucket for a given source.
func metadataBucketName(source Source) []byte {
	if source == Local {
		return bucketMetadataLocal
	}
	return bucketMetadataBase
}

// documentBucketName returns the bucket for a given source.
func documentBucketName(source Source) []byte {
	if source == Local {
		return bucketDocumentsLocal
	}
	return bucketDocumentsBase
}
