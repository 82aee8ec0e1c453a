package ops

import (
	"path/filepath"
	"testing"

	"github.com/foliotree/foliotree/pkg/crypto"
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

func newTestCrypto(t *testing.T) crypto.Crypto {
	t.Helper()
	pub, priv, err := crypto.GenerateNaClKeypair()
	if err != nil {
		t.Fatal(err)
	}
	master, err := crypto.GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	return crypto.NewNaClCrypto(pub, priv, master)
}

func seedRoot(t *testing.T, r *repo.Repo, owner identity.Owner) identity.ID {
	t.Helper()
	rootID := identity.NewID()
	root := &tree.Node{ID: rootID, Parent: rootID, Kind: tree.KindFolder, Name: "root", Owner: owner}
	if err := r.Update(func(txn *repo.Txn) error { return txn.InsertMetadata(repo.Local, root) }); err != nil {
		t.Fatal(err)
	}
	return rootID
}

func TestCreateDocumentStoresSealedBody(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)
	cryptoCapability := newTestCrypto(t)

	var doc *tree.Node
	err := r.Update(func(txn *repo.Txn) error {
		var err error
		doc, err = Create(txn, cryptoCapability, owner, rootID, tree.KindDocument, "notes.md", []byte("hello"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.MetadataVersion != 0 || doc.ContentVersion != 0 {
		t.Error("expected a freshly created document to carry zero versions")
	}

	err = r.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Local, doc.ID)
		if err != nil {
			return err
		}
		if node.Name != "notes.md" {
			t.Errorf("got name %q, want notes.md", node.Name)
		}

		sealed, err := txn.GetDocument(repo.Local, doc.ID)
		if err != nil {
			return err
		}
		key, err := cryptoCapability.UnwrapContentKey(owner, node.WrappedKey)
		if err != nil {
			return err
		}
		body, err := cryptoCapability.OpenDocument(key, sealed)
		if err != nil {
			return err
		}
		if string(body) != "hello" {
			t.Errorf("got body %q, want hello", body)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateFolder(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)
	cryptoCapability := newTestCrypto(t)

	err := r.Update(func(txn *repo.Txn) error {
		_, err := Create(txn, cryptoCapability, owner, rootID, tree.KindFolder, "docs", nil)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMoveRefusesOnRoot(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return Move(txn, owner, rootID, rootID)
	})
	if !ferrors.IsKind(err, ferrors.KindRootModification) {
		t.Fatalf("got %v, want KindRootModification", err)
	}
}

func TestMoveRefusesWithoutPermission(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	stranger := testOwner(2)
	rootID := seedRoot(t, r, owner)
	cryptoCapability := newTestCrypto(t)

	var folderID identity.ID
	err := r.Update(func(txn *repo.Txn) error {
		node, err := Create(txn, cryptoCapability, owner, rootID, tree.KindFolder, "docs", nil)
		folderID = node.ID
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.Update(func(txn *repo.Txn) error {
		return Move(txn, stranger, folderID, rootID)
	})
	if !ferrors.IsKind(err, ferrors.KindPermissionDenied) {
		t.Fatalf("got %v, want KindPermissionDenied", err)
	}
}

func TestRenameUpdatesNameAndSealedName(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)
	cryptoCapability := newTestCrypto(t)

	var folderID identity.ID
	err := r.Update(func(txn *repo.Txn) error {
		node, err := Create(txn, cryptoCapability, owner, rootID, tree.KindFolder, "docs", nil)
		folderID = node.ID
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.Update(func(txn *repo.Txn) error {
		return Rename(txn, cryptoCapability, owner, folderID, "archive")
	})
	if err != nil {
		t.Fatal(err)
	}

	err = r.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Local, folderID)
		if err != nil {
			return err
		}
		if node.Name != "archive" {
			t.Errorf("got name %q, want archive", node.Name)
		}
		opened, err := cryptoCapability.OpenName(folderID, node.EncryptedName)
		if err != nil {
			return err
		}
		if opened != "archive" {
			t.Errorf("got sealed name %q, want archive", opened)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDeleteIsMonotonic(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)
	cryptoCapability := newTestCrypto(t)

	var folderID identity.ID
	err := r.Update(func(txn *repo.Txn) error {
		node, err := Create(txn, cryptoCapability, owner, rootID, tree.KindFolder, "docs", nil)
		folderID = node.ID
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := r.Update(func(txn *repo.Txn) error { return Delete(txn, owner, folderID) }); err != nil {
			t.Fatal(err)
		}
	}

	err = r.View(func(txn *repo.Txn) error {
		node, err := txn.GetMetadata(repo.Local, folderID)
		if err != nil {
			return err
		}
		if !node.Deleted {
			t.Error("expected node to be deleted")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestDeleteRefusesOnRoot(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)
	rootID := seedRoot(t, r, owner)

	err := r.Update(func(txn *repo.Txn) error {
		return Delete(txn, owner, rootID)
	})
	if !ferrors.IsKind(err, ferrors.KindRootModification) {
		t.Fatalf("got %v, want KindRootModification", err)
	}
}

func TestCreateRoot(t *testing.T) {
	r := newTestRepo(t)
	owner := testOwner(1)

	var root *tree.Node
	err := r.Update(func(txn *repo.Txn) error {
		var err error
		root, err = CreateRoot(txn, owner, "my-tree")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if !root.IsRoot() {
		t.Error("expected a self-parented root node")
	}
}
