package merge

import (
	"testing"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

func newRoot(owner identity.Owner) *tree.Node {
	id := identity.NewID()
	return &tree.Node{ID: id, Parent: id, Kind: tree.KindFolder, Name: "", Owner: owner}
}

func newFolder(owner identity.Owner, parent identity.ID, name string) *tree.Node {
	return &tree.Node{ID: identity.NewID(), Parent: parent, Kind: tree.KindFolder, Name: name, Owner: owner}
}

func snapshotOf(nodes ...*tree.Node) tree.Snapshot {
	s := make(tree.Snapshot, len(nodes))
	for _, n := range nodes {
		s[n.ID] = n
	}
	return s
}

func clone(s tree.Snapshot) tree.Snapshot {
	out := make(tree.Snapshot, len(s))
	for id, n := range s {
		out[id] = n.Clone()
	}
	return out
}

// TestMergeTreeUnmove covers scenario 1: moving a node away and back
// collapses to no-op relative to base.
func TestMergeTreeUnmove(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	folderA := newFolder(owner, root.ID, "a")
	doc := newFolder(owner, root.ID, "doc")

	base := snapshotOf(root, folderA, doc)

	local := clone(base)
	local[doc.ID].Parent = folderA.ID
	local[doc.ID].Parent = root.ID // moved into a/ then back to root

	merged, err := MergeTree(base, local, clone(base))
	if err != nil {
		t.Fatal(err)
	}
	if merged[doc.ID].Parent != root.ID {
		t.Error("expected doc to end up back at root")
	}
}

// TestMergeTreeConcurrentIdenticalMove covers scenario 2.
func TestMergeTreeConcurrentIdenticalMove(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	parent := newFolder(owner, root.ID, "parent")
	doc := newFolder(owner, root.ID, "doc")

	base := snapshotOf(root, parent, doc)

	local := clone(base)
	local[doc.ID].Parent = parent.ID
	remote := clone(base)
	remote[doc.ID].Parent = parent.ID

	merged, err := MergeTree(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if merged[doc.ID].Parent != parent.ID {
		t.Error("expected doc to end up under parent on both sides")
	}
}

// TestMergeTreeThreeCycleRevertsOneSide covers scenario 3: a 3-cycle of
// concurrent moves is broken by reverting the side with fewer moves inside
// the cycle.
func TestMergeTreeThreeCycleRevertsOneSide(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	a := newFolder(owner, root.ID, "a")
	b := newFolder(owner, root.ID, "b")
	c := newFolder(owner, root.ID, "c")

	base := snapshotOf(root, a, b, c)

	// Local performs two moves of the cycle: a->b, b->c.
	local := clone(base)
	local[a.ID].Parent = b.ID
	local[b.ID].Parent = c.ID

	// Remote performs the third: c->a.
	remote := clone(base)
	remote[c.ID].Parent = a.ID

	merged, err := MergeTree(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}

	// Remote's single move (fewer moves in the cycle) should be reverted,
	// leaving local's two moves: a under b, b under c, c at root.
	if merged[c.ID].Parent != root.ID {
		t.Errorf("expected c to remain at root after revert, parent = %v", merged[c.ID].Parent)
	}
	if merged[a.ID].Parent != b.ID {
		t.Error("expected a to remain under b")
	}
	if merged[b.ID].Parent != c.ID {
		t.Error("expected b to remain under c")
	}
}

// TestMergeTreeConcurrentCreateSameNameRenames covers scenario 4.
func TestMergeTreeConcurrentCreateSameNameRenames(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	base := snapshotOf(root)

	local := clone(base)
	localDoc := newFolder(owner, root.ID, "a.md")
	local[localDoc.ID] = localDoc

	remote := clone(base)
	remoteDoc := newFolder(owner, root.ID, "a.md")
	remote[remoteDoc.ID] = remoteDoc

	merged, err := MergeTree(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for id, node := range merged {
		if id == root.ID {
			continue
		}
		names[node.Name] = true
	}
	if !names["a.md"] || !names["a-1.md"] {
		t.Errorf("expected names a.md and a-1.md, got %v", names)
	}
}

// TestMergeTreeEditVsDeleteDeleteWins covers scenario 5.
func TestMergeTreeEditVsDeleteDeleteWins(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	doc := newFolder(owner, root.ID, "doc.md")
	doc.Kind = tree.KindDocument
	base := snapshotOf(root, doc)

	local := clone(base)
	local[doc.ID].ContentVersion = base[doc.ID].ContentVersion + 1

	remote := clone(base)
	remote[doc.ID].Deleted = true

	merged, err := MergeTree(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if !merged[doc.ID].Deleted {
		t.Error("expected doc to be deleted after merge")
	}
}

// TestMergeTreeDeletePropagatesToChildren verifies step 2: a node under a
// deleted ancestor is itself marked deleted in the merged result.
func TestMergeTreeDeletePropagatesToChildren(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	folder := newFolder(owner, root.ID, "folder")
	child := newFolder(owner, folder.ID, "child")
	base := snapshotOf(root, folder, child)

	local := clone(base)
	local[folder.ID].Deleted = true

	merged, err := MergeTree(base, local, clone(base))
	if err != nil {
		t.Fatal(err)
	}
	if !merged[child.ID].Deleted {
		t.Error("expected child of deleted folder to be deleted")
	}
}

// TestMergeTreeSharedSubtreeLinkCleanup verifies step 5: a link left inside
// a newly shared subtree is deleted rather than failing validation.
func TestMergeTreeSharedSubtreeLinkCleanup(t *testing.T) {
	owner := testOwner(1)
	otherOwner := testOwner(2)
	root := newRoot(owner)
	folder := newFolder(owner, root.ID, "folder")
	linkTarget := newFolder(otherOwner, root.ID, "other-doc")
	link := &tree.Node{
		ID: identity.NewID(), Parent: folder.ID, Kind: tree.KindLink,
		Target: linkTarget.ID, Name: "link", Owner: owner,
	}
	base := snapshotOf(root, folder, linkTarget, link)

	local := clone(base)
	local[folder.ID].Shares = map[identity.Owner]tree.ShareGrant{
		otherOwner: {With: otherOwner, Mode: tree.ModeRead, Version: 1},
	}

	merged, err := MergeTree(base, local, clone(base))
	if err != nil {
		t.Fatal(err)
	}
	if !merged[link.ID].Deleted {
		t.Error("expected link inside newly shared subtree to be deleted")
	}
}

// TestMergeTreeIrreconcilableConflict verifies that a validation failure
// surviving every remediation step surfaces as KindIrreconcilableConflict.
func TestMergeTreeIrreconcilableConflict(t *testing.T) {
	owner := testOwner(1)
	root := newRoot(owner)
	link := &tree.Node{
		ID: identity.NewID(), Parent: root.ID, Kind: tree.KindLink,
		Target: identity.NewID(), Name: "dangling-link", Owner: owner,
	}
	base := snapshotOf(root, link)

	_, err := MergeTree(base, clone(base), clone(base))
	if err == nil {
		t.Fatal("expected irreconcilable conflict for a link to a nonexistent node")
	}
	if !ferrors.IsKind(err, ferrors.KindIrreconcilableConflict) {
		t.Errorf("got %v, want KindIrreconcilableConflict", err)
	}
}
