package merge

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/foliotree/foliotree/pkg/identity"
	"github.com/foliotree/foliotree/pkg/tree"
)

// resolvePathConflicts implements §4.E.3 step 4: among non-deleted siblings
// sharing a name, the lowest id keeps it; the rest are renamed by inserting
// "-N" before the extension, N starting at 1 and increasing until unique
// within the sibling set.
func resolvePathConflicts(candidate map[identity.ID]*tree.Node) {
	siblings := make(map[identity.ID][]identity.ID)
	for id, node := range candidate {
		if node.Deleted || node.IsRoot() {
			continue
		}
		siblings[node.Parent] = append(siblings[node.Parent], id)
	}

	for _, ids := range siblings {
		byName := make(map[string][]identity.ID)
		usedNames := make(map[string]bool, len(ids))
		for _, id := range ids {
			name := candidate[id].Name
			byName[name] = append(byName[name], id)
			usedNames[name] = true
		}

		for _, group := range byName {
			if len(group) < 2 {
				continue
			}
			sort.Slice(group, func(i, j int) bool {
				return bytes.Compare(group[i][:], group[j][:]) < 0
			})
			for _, id := range group[1:] {
				renamed := nextAvailableName(candidate[id].Name, usedNames)
				candidate[id].Name = renamed
				usedNames[renamed] = true
			}
		}
	}
}

// nextAvailableName finds the smallest N >= 1 for which inserting "-N"
// before name's extension (or appending it, if name has none) produces a
// name not already in used.
func nextAvailableName(name string, used map[string]bool) string {
	base, ext := splitExtension(name)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if !used[candidate] {
			return candidate
		}
	}
}

// splitExtension splits name at its last "." into a base and an extension
// (including the dot), unless the dot is the first character, in which
// case the whole name is treated as having no extension.
func splitExtension(name string) (string, string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
