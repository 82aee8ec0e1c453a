package repo

import (
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// PromoteMetadata copies every Local metadata record to Base and deletes it
// from Local. Base-only and unchanged pairs are left untouched.
func (t *Txn) PromoteMetadata() error {
	var ids []identity.ID
	var nodes []*tree.Node

	if err := t.forEachMetadata(Local, func(n *tree.Node) error {
		ids = append(ids, n.ID)
		nodes = append(nodes, n)
		return nil
	}); err != nil {
		return err
	}

	for i, id := range ids {
		if err := t.writeMetadataRaw(Base, nodes[i]); err != nil {
			return err
		}
		if err := t.deleteMetadataRaw(Local, id); err != nil {
			return err
		}
	}
	return nil
}

// PromoteDocuments copies every Local document body to Base and deletes it
// from Local.
func (t *Txn) PromoteDocuments() error {
	bucket := t.tx.Bucket(documentBucketName(Local))

	var ids []identity.ID
	var bodies [][]byte
	if err := bucket.ForEach(func(k, v []byte) error {
		var id identity.ID
		copy(id[:], k)
		ids = append(ids, id)
		bodies = append(bodies, append([]byte(nil), v...))
		return nil
	}); err != nil {
		return err
	}

	for i, id := range ids {
		if err := t.writeDocumentRaw(Base, id, bodies[i]); err != nil {
			return err
		}
		if err := t.deleteDocumentRaw(Local, id); err != nil {
			return err
		}
	}
	return nil
}
