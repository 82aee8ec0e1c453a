package remote

import (
	"context"
	"sync"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// MemoryClient is an in-memory reference Client, useful for sync coordinator
// tests and local experimentation without a real server. All state is
// guarded by a single mutex, matching the teacher's local endpoint's
// coarse-grained locking for its in-process state.
type MemoryClient struct {
	mu sync.Mutex

	nodes     map[identity.ID]*tree.Node
	documents map[identity.ID]map[uint64][]byte
	version   uint64
	// log records every node version ever accepted, in acceptance order, so
	// Pull can replay exactly the deltas after a given high-water-mark.
	log []*tree.Node
}

// NewMemoryClient constructs an empty in-memory reference server.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		nodes:     make(map[identity.ID]*tree.Node),
		documents: make(map[identity.ID]map[uint64][]byte),
	}
}

// Pull implements Client.
func (m *MemoryClient) Pull(_ context.Context, sinceVersion uint64) ([]*tree.Node, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deltas []*tree.Node
	for _, node := range m.log {
		// An entry was accepted at whichever of its two versions the
		// accepting push just assigned, i.e. the larger one; a content-only
		// push leaves MetadataVersion unchanged.
		accepted := node.MetadataVersion
		if node.ContentVersion > accepted {
			accepted = node.ContentVersion
		}
		if accepted > sinceVersion {
			deltas = append(deltas, node.Clone())
		}
	}
	return deltas, m.version, nil
}

// FetchDocument implements Client.
func (m *MemoryClient) FetchDocument(_ context.Context, id identity.ID, contentVersion uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.documents[id]
	if !ok {
		return nil, ferrors.New(ferrors.KindNotFound, "no document recorded for id")
	}
	body, ok := versions[contentVersion]
	if !ok {
		return nil, ferrors.New(ferrors.KindNotFound, "no document recorded at the requested content version")
	}
	return append([]byte(nil), body...), nil
}

// PushMetadata implements Client.
func (m *MemoryClient) PushMetadata(_ context.Context, upserts []MetadataUpsert) ([]PushResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]PushResult, len(upserts))
	for i, upsert := range upserts {
		existing, ok := m.nodes[upsert.Node.ID]
		if ok && existing.MetadataVersion != upsert.BaseVersion {
			results[i] = PushResult{ID: upsert.Node.ID, Status: PushStaleVersion, Version: existing.MetadataVersion}
			continue
		}

		m.version++
		stored := upsert.Node.Clone()
		stored.MetadataVersion = m.version
		m.nodes[stored.ID] = stored
		m.log = append(m.log, stored.Clone())
		results[i] = PushResult{ID: stored.ID, Status: PushOk, Version: stored.MetadataVersion}
	}
	return results, nil
}

// PushDocuments implements Client.
func (m *MemoryClient) PushDocuments(_ context.Context, upserts []DocumentUpsert) ([]PushResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]PushResult, len(upserts))
	for i, upsert := range upserts {
		node, ok := m.nodes[upsert.ID]
		if !ok || node.ContentVersion != upsert.BaseVersion {
			var current uint64
			if ok {
				current = node.ContentVersion
			}
			results[i] = PushResult{ID: upsert.ID, Status: PushStaleVersion, Version: current}
			continue
		}

		m.version++
		updated := node.Clone()
		updated.ContentVersion = m.version
		m.nodes[updated.ID] = updated
		m.log = append(m.log, updated.Clone())

		if m.documents[upsert.ID] == nil {
			m.documents[upsert.ID] = make(map[uint64][]byte)
		}
		m.documents[upsert.ID][updated.ContentVersion] = append([]byte(nil), upsert.Body...)
		results[i] = PushResult{ID: upsert.ID, Status: PushOk, Version: updated.ContentVersion}
	}
	return results, nil
}

// Close implements Client. MemoryClient holds no external resources.
func (m *MemoryClient) Close() error {
	return nil
}
