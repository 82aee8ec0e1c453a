package merge

import (
	"path/filepath"
	"sort"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/foliotree/foliotree/pkg/ferrors"
	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// mergeableExtensions is the §6 set eligible for three-way line merge.
// Comparison is case-insensitive; filepath.Ext already includes the dot.
var mergeableExtensions = map[string]bool{
	".md": true, ".txt": true, ".rs": true, ".go": true, ".ts": true,
	".js": true, ".py": true, ".c": true, ".h": true, ".cpp": true,
	".hpp": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".html": true, ".css": true,
}

// IsMergeableText reports whether name's extension is in the mergeable-text
// set, per §6.
func IsMergeableText(name string) bool {
	return mergeableExtensions[strings.ToLower(filepath.Ext(name))]
}

// documentHunk is a contiguous base byte range one side replaced with text,
// derived from a line-mode diff against base.
type documentHunk struct {
	start, end int
	text       string
}

// MergeDocument performs the §4.E.4 three-way merge of a mergeable text
// document's body: a Myers line diff of local against base and of remote
// against base, with non-overlapping hunks applied independently and
// overlapping hunks resolved by concatenating the local hunk then the
// remote hunk.
func MergeDocument(base, local, remote []byte) ([]byte, error) {
	differ := dmp.New()

	baseText := string(base)

	baseChars, localChars, lineArray := differ.DiffLinesToChars(baseText, string(local))
	localDiffs := differ.DiffCharsToLines(differ.DiffMain(baseChars, localChars, false), lineArray)

	baseChars2, remoteChars, lineArray2 := differ.DiffLinesToChars(baseText, string(remote))
	remoteDiffs := differ.DiffCharsToLines(differ.DiffMain(baseChars2, remoteChars, false), lineArray2)

	merged, err := applyDocumentHunks(baseText, hunksFromDiff(localDiffs), hunksFromDiff(remoteDiffs))
	if err != nil {
		return nil, err
	}
	return []byte(merged), nil
}

// hunksFromDiff walks a base-anchored diff (Equal/Delete consume base text,
// Insert contributes replacement text only) into a list of disjoint,
// base-ordered replacement ranges.
func hunksFromDiff(diffs []dmp.Diff) []documentHunk {
	var hunks []documentHunk
	pos := 0
	for i := 0; i < len(diffs); {
		if diffs[i].Type == dmp.DiffEqual {
			pos += len(diffs[i].Text)
			i++
			continue
		}

		start := pos
		var deletedLen int
		var inserted strings.Builder
		for i < len(diffs) && diffs[i].Type != dmp.DiffEqual {
			switch diffs[i].Type {
			case dmp.DiffDelete:
				deletedLen += len(diffs[i].Text)
			case dmp.DiffInsert:
				inserted.WriteString(diffs[i].Text)
			}
			i++
		}
		pos += deletedLen
		hunks = append(hunks, documentHunk{start: start, end: pos, text: inserted.String()})
	}
	return hunks
}

type taggedDocumentHunk struct {
	documentHunk
	fromLocal bool
}

// applyDocumentHunks merges two base-anchored hunk lists, copying
// untouched base text between changes, applying a side's hunk directly
// where only that side changed a region, and concatenating the local
// hunk's text then the remote hunk's text where their ranges overlap.
func applyDocumentHunks(base string, localHunks, remoteHunks []documentHunk) (string, error) {
	all := make([]taggedDocumentHunk, 0, len(localHunks)+len(remoteHunks))
	for _, h := range localHunks {
		all = append(all, taggedDocumentHunk{h, true})
	}
	for _, h := range remoteHunks {
		all = append(all, taggedDocumentHunk{h, false})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].fromLocal && !all[j].fromLocal
	})

	var out strings.Builder
	pos := 0
	for i := 0; i < len(all); {
		groupStart, groupEnd := all[i].start, all[i].end
		j := i + 1
		for j < len(all) && all[j].start < groupEnd {
			if all[j].end > groupEnd {
				groupEnd = all[j].end
			}
			j++
		}

		if groupStart < pos || groupEnd > len(base) {
			return "", ferrors.New(ferrors.KindInvalidArgument, "document hunks are out of range or out of order")
		}
		out.WriteString(base[pos:groupStart])

		var localText, remoteText strings.Builder
		for k := i; k < j; k++ {
			if all[k].fromLocal {
				localText.WriteString(all[k].text)
			} else {
				remoteText.WriteString(all[k].text)
			}
		}
		out.WriteString(localText.String())
		out.WriteString(remoteText.String())

		pos = groupEnd
		i = j
	}
	out.WriteString(base[pos:])

	return out.String(), nil
}

// DuplicateForConflict implements §4.E.4's non-mergeable-extension fallback:
// a new node with the same parent, kind, and owner as node, pending push
// (zero versions, no shares), holding local's body. Its name is node's name
// disambiguated against existingNames using the §4.E.3 step-4 rule, so the
// caller need only insert the returned node and write local's body under
// its id; remote's body is kept, unchanged, under the original id.
func DuplicateForConflict(node *tree.Node, existingNames map[string]bool) *tree.Node {
	duplicate := node.Clone()
	duplicate.ID = identity.NewID()
	duplicate.MetadataVersion = 0
	duplicate.ContentVersion = 0
	duplicate.Shares = nil
	duplicate.EncryptedName = nil
	duplicate.WrappedKey = nil
	duplicate.Name = nextAvailableName(node.Name, existingNames)
	return duplicate
}
