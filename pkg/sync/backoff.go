package sync

import (
	"context"
	"time"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/remote"
	"github.com/foliotree/foliotree/pkg/tree"
)

// retryNetwork calls op repeatedly, doubling an exponential backoff on each
// KindNetwork failure until it either succeeds, ctx is done, or a
// non-network error is returned. Non-network errors (crypto/auth failures,
// per §5) surface immediately without retry.
func retryNetwork(ctx context.Context, op func() error) error {
	backoff := defaultInitialBackoff
	for {
		err := op()
		if err == nil {
			return nil
		}
		if !ferrors.IsKind(err, ferrors.KindNetwork) {
			return err
		}

		select {
		case <-ctx.Done():
			return ferrors.Wrap(ferrors.KindNetwork, err, "deadline exceeded while retrying after network failure")
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > defaultMaxBackoff {
			backoff = defaultMaxBackoff
		}
	}
}

// pullWithRetry wraps Client.Pull with retryNetwork.
func pullWithRetry(ctx context.Context, client remote.Client, sinceVersion uint64) ([]*tree.Node, uint64, error) {
	var deltas []*tree.Node
	var newHighWaterMark uint64
	err := retryNetwork(ctx, func() error {
		var err error
		deltas, newHighWaterMark, err = client.Pull(ctx, sinceVersion)
		return err
	})
	return deltas, newHighWaterMark, err
}

// pushMetadataWithRetry wraps Client.PushMetadata with retryNetwork.
func pushMetadataWithRetry(ctx context.Context, client remote.Client, upserts []remote.MetadataUpsert) ([]remote.PushResult, error) {
	if len(upserts) == 0 {
		return nil, nil
	}
	var results []remote.PushResult
	err := retryNetwork(ctx, func() error {
		var err error
		results, err = client.PushMetadata(ctx, upserts)
		return err
	})
	return results, err
}

// pushDocumentsWithRetry wraps Client.PushDocuments with retryNetwork.
func pushDocumentsWithRetry(ctx context.Context, client remote.Client, upserts []remote.DocumentUpsert) ([]remote.PushResult, error) {
	if len(upserts) == 0 {
		return nil, nil
	}
	var results []remote.PushResult
	err := retryNetwork(ctx, func() error {
		var err error
		results, err = client.PushDocuments(ctx, upserts)
		return err
	})
	return results, err
}
