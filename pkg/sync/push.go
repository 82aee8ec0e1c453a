package sync

import (
	"context"

	stderrors "errors"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/remote"
	"github.com/foliotree/foliotree/pkg/repo"
)

// pushOutcome bundles the per-id results of a metadata and a document push
// so they can be applied to Local together once both have been accepted.
type pushOutcome struct {
	metadata []remote.PushResult
	document []remote.PushResult
}

// pushChanges gathers every pending local change (§4.C) and pushes it,
// returning an error classified as KindStaleVersion if any id lost a race
// with another device (triggering a cycle restart in RunCycle) or
// KindPermissionDenied if the server's own invariant 9 check rejected an
// upsert.
func (c *Coordinator) pushChanges(ctx context.Context) (pushOutcome, error) {
	var metadataUpserts []remote.MetadataUpsert
	var documentUpserts []remote.DocumentUpsert

	err := c.repo.View(func(txn *repo.Txn) error {
		changes, err := txn.GetAllMetadataChanges()
		if err != nil {
			return err
		}
		for _, change := range changes {
			node, err := txn.GetMetadata(repo.Local, change.ID)
			if err != nil {
				return err
			}
			metadataUpserts = append(metadataUpserts, remote.MetadataUpsert{Node: node, BaseVersion: node.MetadataVersion})
		}

		docIDs, err := txn.GetAllWithDocumentChanges()
		if err != nil {
			return err
		}
		for _, id := range docIDs {
			node, err := txn.GetMetadata(repo.Local, id)
			if err != nil {
				return err
			}
			body, err := txn.GetDocument(repo.Local, id)
			if err != nil {
				return err
			}
			documentUpserts = append(documentUpserts, remote.DocumentUpsert{ID: id, Body: body, BaseVersion: node.ContentVersion})
		}
		return nil
	})
	if err != nil {
		return pushOutcome{}, err
	}

	metadataResults, err := pushMetadataWithRetry(ctx, c.client, metadataUpserts)
	if err != nil {
		return pushOutcome{}, err
	}
	if err := checkPushResults(metadataResults); err != nil {
		return pushOutcome{}, err
	}

	documentResults, err := pushDocumentsWithRetry(ctx, c.client, documentUpserts)
	if err != nil {
		return pushOutcome{}, err
	}
	if err := checkPushResults(documentResults); err != nil {
		return pushOutcome{}, err
	}

	return pushOutcome{metadata: metadataResults, document: documentResults}, nil
}

// checkPushResults classifies the first non-Ok result found, if any.
func checkPushResults(results []remote.PushResult) error {
	for _, result := range results {
		switch result.Status {
		case remote.PushStaleVersion:
			return ferrors.WithID(ferrors.KindStaleVersion, stderrors.New("push rejected: server version has advanced"), result.ID.String())
		case remote.PushPermissionDenied:
			return ferrors.WithID(ferrors.KindPermissionDenied, stderrors.New("push rejected by server permission check"), result.ID.String())
		}
	}
	return nil
}

// applyPushResults writes the server-assigned versions from a successful
// push back onto the Local records, so that Promote (step 6) commits Base
// at the versions the server actually holds.
func applyPushResults(txn *repo.Txn, outcome pushOutcome) error {
	for _, result := range outcome.metadata {
		node, err := txn.GetMetadata(repo.Local, result.ID)
		if err != nil {
			return err
		}
		updated := node.Clone()
		updated.MetadataVersion = result.Version
		if err := txn.InsertMetadata(repo.Local, updated); err != nil {
			return err
		}
	}
	for _, result := range outcome.document {
		node, err := txn.GetMetadata(repo.Local, result.ID)
		if err != nil {
			return err
		}
		updated := node.Clone()
		updated.ContentVersion = result.Version
		if err := txn.InsertMetadata(repo.Local, updated); err != nil {
			return err
		}
	}
	return nil
}
