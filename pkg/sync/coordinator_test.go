package sync

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/foliotree/foliotree/pkg/crypto"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/remote"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

func newTestRepo(t *testing.T, owner identity.Owner) *repo.Repo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.db")
	r, err := repo.Open(path, nil)
	if err != nil {
		t.Fatal("unable to open test repo:", err)
	}
	t.Cleanup(func() { r.Close() })

	err = r.Update(func(txn *repo.Txn) error {
		return txn.SetMeta(owner, identity.NewID(), identity.HighWaterMark{})
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func newTestCoordinator(t *testing.T) (*Coordinator, identity.Owner, *NaClTestCrypto) {
	t.Helper()
	tc := newNaClTestCrypto(t)
	r := newTestRepo(t, tc.owner)
	client := remote.NewMemoryClient()
	coordinator := NewCoordinator(r, client, tc.crypto, tc.owner, nil)
	return coordinator, tc.owner, tc
}

// NaClTestCrypto bundles a reference Crypto instance with its owner
// identity for tests that need to seal/open real document bodies.
type NaClTestCrypto struct {
	crypto crypto.Crypto
	owner  identity.Owner
}

func newNaClTestCrypto(t *testing.T) *NaClTestCrypto {
	t.Helper()
	pub, priv, err := crypto.GenerateNaClKeypair()
	if err != nil {
		t.Fatal(err)
	}
	master, err := crypto.GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	return &NaClTestCrypto{crypto: crypto.NewNaClCrypto(pub, priv, master), owner: identity.Owner(pub)}
}

func TestRunCyclePushesLocalCreate(t *testing.T) {
	coordinator, owner, _ := newTestCoordinator(t)

	rootID := identity.NewID()
	err := coordinator.repo.Update(func(txn *repo.Txn) error {
		return txn.InsertMetadata(repo.Local, &tree.Node{ID: rootID, Parent: rootID, Kind: tree.KindFolder, Name: "root", Owner: owner})
	})
	if err != nil {
		t.Fatal(err)
	}

	work, err := coordinator.LocalWork()
	if err != nil {
		t.Fatal(err)
	}
	if len(work) != 1 {
		t.Fatalf("expected one pending local change, got %v", work)
	}

	if err := coordinator.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	work, err = coordinator.LocalWork()
	if err != nil {
		t.Fatal(err)
	}
	if len(work) != 0 {
		t.Errorf("expected no pending local changes after a successful cycle, got %v", work)
	}
	if len(coordinator.ServerWork()) != 0 {
		t.Errorf("expected empty server work after a successful cycle")
	}

	err = coordinator.repo.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Base, rootID)
		if err != nil {
			return err
		}
		if node.MetadataVersion == 0 {
			t.Error("expected the promoted root to carry a server-assigned version")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRunCyclePullsRemoteCreate(t *testing.T) {
	coordinator, owner, _ := newTestCoordinator(t)

	remoteRootID := identity.NewID()
	client := coordinator.client.(*remote.MemoryClient)
	_, err := client.PushMetadata(context.Background(), []remote.MetadataUpsert{
		{Node: &tree.Node{ID: remoteRootID, Parent: remoteRootID, Kind: tree.KindFolder, Name: "remote-root", Owner: owner}, BaseVersion: 0},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := coordinator.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	err = coordinator.repo.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Base, remoteRootID)
		if err != nil {
			return err
		}
		if node.Name != "remote-root" {
			t.Errorf("got name %q, want remote-root", node.Name)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRunCycleTwoCoordinatorsConverge(t *testing.T) {
	tc := newNaClTestCrypto(t)
	client := remote.NewMemoryClient()

	repoA := newTestRepo(t, tc.owner)
	repoB := newTestRepo(t, tc.owner)
	coordinatorA := NewCoordinator(repoA, client, tc.crypto, tc.owner, nil)
	coordinatorB := NewCoordinator(repoB, client, tc.crypto, tc.owner, nil)

	rootID := identity.NewID()
	err := repoA.Update(func(txn *repo.Txn) error {
		return txn.InsertMetadata(repo.Local, &tree.Node{ID: rootID, Parent: rootID, Kind: tree.KindFolder, Name: "root", Owner: tc.owner})
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := coordinatorA.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := coordinatorB.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	err = repoB.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Base, rootID)
		if err != nil {
			return err
		}
		if node.Name != "root" {
			t.Errorf("got name %q, want root", node.Name)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
