// Package remote models the server wire contract consumed by the sync
// coordinator (§6): per-id deltas, a lazy document fetch, and a
// version-guarded push, grounded on the teacher's synchronization.Endpoint
// shape (poll/scan/stage/supply/transition/shutdown) but narrowed to the
// three RPCs the spec actually names.
package remote

import (
	"context"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// PushStatus is the per-id outcome of a push, mirroring §6's
// "Ok | StaleVersion | PermissionDenied" result set.
type PushStatus int

const (
	// PushOk indicates the upsert was accepted and the returned version is
	// now authoritative.
	PushOk PushStatus = iota
	// PushStaleVersion indicates the caller's base version was behind the
	// server's; the caller must pull and retry.
	PushStaleVersion
	// PushPermissionDenied indicates the server rejected the upsert under
	// its own copy of invariant 9.
	PushPermissionDenied
)

// String renders the status for logging.
func (s PushStatus) String() string {
	switch s {
	case PushOk:
		return "ok"
	case PushStaleVersion:
		return "stale_version"
	case PushPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// MetadataUpsert is one version-guarded metadata push.
type MetadataUpsert struct {
	Node *tree.Node
	// BaseVersion is the MetadataVersion the caller last observed for this
	// id; the server rejects the upsert with PushStaleVersion if its own
	// version has since advanced past it.
	BaseVersion uint64
}

// PushResult is the per-id outcome of a metadata push.
type PushResult struct {
	ID      identity.ID
	Status  PushStatus
	Version uint64
}

// DocumentUpsert is one version-guarded document body push.
type DocumentUpsert struct {
	ID          identity.ID
	Body        []byte
	BaseVersion uint64
}

// Client is the capability the sync coordinator consumes for everything
// server-facing. The coordinator calls FetchDocument from several
// goroutines at once (bounded by its fetch concurrency), so implementations
// must allow concurrent FetchDocument calls; its Pull and push calls within
// a cycle are made one at a time. Close may be called concurrently with
// any method.
type Client interface {
	// Pull requests every metadata delta recorded after sinceVersion. It
	// blocks until the deltas are available, ctx is cancelled, or an error
	// occurs.
	Pull(ctx context.Context, sinceVersion uint64) ([]*tree.Node, uint64, error)

	// FetchDocument retrieves the body for id at contentVersion. The
	// coordinator calls it for every document node returned by Pull, at
	// that node's content version.
	FetchDocument(ctx context.Context, id identity.ID, contentVersion uint64) ([]byte, error)

	// PushMetadata submits a batch of version-guarded metadata upserts,
	// returning one PushResult per upsert in the same order.
	PushMetadata(ctx context.Context, upserts []MetadataUpsert) ([]PushResult, error)

	// PushDocuments submits a batch of version-guarded document body
	// upserts, returning one PushResult per upsert in the same order.
	PushDocuments(ctx context.Context, upserts []DocumentUpsert) ([]PushResult, error)

	// Close releases any resources (connections, goroutines) held by the
	// client. Safe to call concurrently with other methods, which should be
	// preempted rather than left to complete.
	Close() error
}
