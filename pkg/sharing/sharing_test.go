package sharing

import (
	"path/filepath"
	"testing"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/repo"
	"github.com/foliotree/foliotree/pkg/tree"
)

func newTestRepo(t *testing.T) *repo.Repo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo.db")
	r, err := repo.Open(path, nil)
	if err != nil {
		t.Fatal("unable to open test repo:", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testOwner(b byte) identity.Owner {
	var o identity.Owner
	o[0] = b
	return o
}

// seedRootAndFolder inserts a root owned by owner and a folder beneath it,
// both in the Local source, returning their ids.
func seedRootAndFolder(t *testing.T, r *repo.Repo, owner identity.Owner) (rootID, folderID identity.ID) {
	t.Helper()
	rootID = identity.NewID()
	root := &tree.Node{ID: rootID, Parent: rootID, Kind: tree.KindFolder, Name: "root", Owner: owner}
	folderID = identity.NewID()
	folder := &tree.Node{ID: folderID, Parent: rootID, Kind: tree.KindFolder, Name: "docs", Owner: owner}

	err := r.Update(func(txn *repo.Txn) error {
		if err := txn.InsertMetadata(repo.Local, root); err != nil {
			return err
		}
		return txn.InsertMetadata(repo.Local, folder)
	})
	if err != nil {
		t.Fatal("unable to seed repo:", err)
	}
	return rootID, folderID
}

func TestShareGrantsAccess(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	recipient := testOwner(2)
	_, folderID := seedRootAndFolder(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return Share(txn, owner, folderID, recipient, tree.ModeRead, 1)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Local, folderID)
		if err != nil {
			return err
		}
		if !node.HasActiveShares() {
			t.Error("expected folder to carry an active share")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestShareRefusesOnRoot(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	recipient := testOwner(2)
	rootID, _ := seedRootAndFolder(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return Share(txn, owner, rootID, recipient, tree.ModeRead, 1)
	})
	if !ferrors.IsKind(err, ferrors.KindRootModification) {
		t.Errorf("got %v, want KindRootModification", err)
	}
}

func TestShareRefusesWithoutPermission(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	intruder := testOwner(9)
	recipient := testOwner(2)
	_, folderID := seedRootAndFolder(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return Share(txn, intruder, folderID, recipient, tree.ModeRead, 1)
	})
	if !ferrors.IsKind(err, ferrors.KindPermissionDenied) {
		t.Errorf("got %v, want KindPermissionDenied", err)
	}
}

func TestRejectShareRemovesGrantAndLocalLink(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	recipient := testOwner(2)
	_, folderID := seedRootAndFolder(t, r, owner)

	var linkID identity.ID
	err := r.Update(func(txn *repo.Txn) error {
		if err := Share(txn, owner, folderID, recipient, tree.ModeRead, 1); err != nil {
			return err
		}
		recipientRootID := identity.NewID()
		recipientRoot := &tree.Node{ID: recipientRootID, Parent: recipientRootID, Kind: tree.KindFolder, Name: "myroot", Owner: recipient}
		if err := txn.InsertMetadata(repo.Local, recipientRoot); err != nil {
			return err
		}
		link, err := CreateLink(txn, recipient, recipientRootID, folderID, "shared-docs")
		if err != nil {
			return err
		}
		linkID = link.ID
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.Update(func(txn *repo.Txn) error {
		return RejectShare(txn, recipient, folderID)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.View(func(txn *repo.Txn) error {
		folder, err := txn.GetMetadata(repo.Local, folderID)
		if err != nil {
			return err
		}
		if folder.HasActiveShares() {
			t.Error("expected share grant to be removed")
		}
		link, err := txn.GetMetadata(repo.Local, linkID)
		if err != nil {
			return err
		}
		if !link.Deleted {
			t.Error("expected the recipient's link to be deleted on reject")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRejectShareRejectsWithNoActiveGrant(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	recipient := testOwner(2)
	_, folderID := seedRootAndFolder(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return RejectShare(txn, recipient, folderID)
	})
	if !ferrors.IsKind(err, ferrors.KindInvalidArgument) {
		t.Errorf("got %v, want KindInvalidArgument", err)
	}
}

func TestCreateLinkAndPendingShares(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	recipient := testOwner(2)
	_, folderID := seedRootAndFolder(t, r, owner)

	recipientRootID := identity.NewID()
	err := r.Update(func(txn *repo.Txn) error {
		if err := Share(txn, owner, folderID, recipient, tree.ModeRead, 1); err != nil {
			return err
		}
		recipientRoot := &tree.Node{ID: recipientRootID, Parent: recipientRootID, Kind: tree.KindFolder, Name: "myroot", Owner: recipient}
		return txn.InsertMetadata(repo.Local, recipientRoot)
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.View(func(txn *repo.Txn) error {
		pending, err := PendingShares(txn, recipient)
		if err != nil {
			return err
		}
		if len(pending) != 1 || pending[0].ID != folderID {
			t.Errorf("expected one pending share for folder, got %v", pending)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.Update(func(txn *repo.Txn) error {
		_, err := CreateLink(txn, recipient, recipientRootID, folderID, "shared-docs")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.View(func(txn *repo.Txn) error {
		pending, err := PendingShares(txn, recipient)
		if err != nil {
			return err
		}
		if len(pending) != 0 {
			t.Errorf("expected no pending shares once linked, got %v", pending)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
