package merge

import (
	"testing"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

func TestIsMergeableText(t *testing.T) {
	cases := map[string]bool{
		"notes.md": true, "README.TXT": true, "main.go": true,
		"image.png": false, "archive.tar.gz": false, "noext": false,
	}
	for name, want := range cases {
		if got := IsMergeableText(name); got != want {
			t.Errorf("IsMergeableText(%q) = %v, want %v", name, got, want)
		}
	}
}

// TestMergeDocumentScenario6 verifies the exact three-way text merge
// worked example: independent edits to disjoint lines both survive.
func TestMergeDocumentScenario6(t *testing.T) {
	base := []byte("doc\n\ncontent\n")
	local := []byte("doc 2\n\ncontent\n")
	remote := []byte("doc\n\ncontent 2\n")

	merged, err := MergeDocument(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}
	want := "doc 2\n\ncontent 2\n"
	if string(merged) != want {
		t.Errorf("merged = %q, want %q", merged, want)
	}
}

func TestMergeDocumentLocalOnlyChange(t *testing.T) {
	base := []byte("a\nb\nc\n")
	local := []byte("a\nb2\nc\n")
	remote := []byte("a\nb\nc\n")

	merged, err := MergeDocument(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if string(merged) != "a\nb2\nc\n" {
		t.Errorf("merged = %q", merged)
	}
}

func TestMergeDocumentOverlappingEditsConcatenates(t *testing.T) {
	base := []byte("line\n")
	local := []byte("local-line\n")
	remote := []byte("remote-line\n")

	merged, err := MergeDocument(base, local, remote)
	if err != nil {
		t.Fatal(err)
	}
	if string(merged) != "local-line\nremote-line\n" {
		t.Errorf("merged = %q, want local then remote concatenated", merged)
	}
}

func TestDuplicateForConflictRenamesAndResetsVersions(t *testing.T) {
	node := &tree.Node{
		ID: identity.NewID(), Parent: identity.NewID(), Kind: tree.KindDocument,
		Name: "notes.md", Owner: testOwner(1), MetadataVersion: 4, ContentVersion: 7,
	}
	existing := map[string]bool{"notes.md": true}

	duplicate := DuplicateForConflict(node, existing)
	if duplicate.ID == node.ID {
		t.Error("expected duplicate to have a new id")
	}
	if duplicate.Name != "notes-1.md" {
		t.Errorf("duplicate name = %q, want notes-1.md", duplicate.Name)
	}
	if duplicate.MetadataVersion != 0 || duplicate.ContentVersion != 0 {
		t.Error("expected duplicate to start at version 0, pending push")
	}
	if duplicate.Parent != node.Parent || duplicate.Kind != node.Kind || duplicate.Owner != node.Owner {
		t.Error("expected duplicate to share parent, kind, and owner with the original")
	}
}
