// Package merge implements the three-way merge engine: the scalar
// merge_maybe table, field-wise metadata merge, the six-step tree merge
// (cycle breaking, path-conflict renaming, shared-subtree link cleanup,
// validation), and three-way document content merge for mergeable text
// extensions.
package merge

import (
	"github.com/foliotree/foliotree/pkg/ferrors"
)

// Resolution identifies which of the merge_maybe table's outcomes applies
// to a given (base, local, remote) presence triple.
type Resolution int

const (
	// ResolvedBase means only base is present; keep it.
	ResolvedBase Resolution = iota
	// ResolvedLocal means local is present and should be kept (base absent,
	// or base present but remote absent).
	ResolvedLocal
	// ResolvedRemote means remote is present and should be kept (base and
	// local absent, or base present but local absent).
	ResolvedRemote
	// Conflict means all three are present; field-wise merge must run.
	Conflict
	// BaselessConflict means local and remote are both present but base is
	// not; there is no common ancestor to anchor a field-wise merge.
	BaselessConflict
)

// MergeMaybe is the pure function on a (base, local, remote) presence
// triple described by the scalar merge_maybe table. It is reused everywhere
// presence (rather than value) needs to be reconciled: per-node existence
// in the tree merge, and per-field presence where a field is itself
// optional.
func MergeMaybe(basePresent, localPresent, remotePresent bool) (Resolution, error) {
	switch {
	case basePresent && !localPresent && !remotePresent:
		return ResolvedBase, nil
	case !basePresent && localPresent && !remotePresent:
		return ResolvedLocal, nil
	case basePresent && localPresent && !remotePresent:
		return ResolvedLocal, nil
	case !basePresent && !localPresent && remotePresent:
		return ResolvedRemote, nil
	case basePresent && !localPresent && remotePresent:
		return ResolvedRemote, nil
	case basePresent && localPresent && remotePresent:
		return Conflict, nil
	case !basePresent && localPresent && remotePresent:
		return BaselessConflict, nil
	default:
		return 0, ferrors.New(ferrors.KindNothingToMerge, "nothing to merge: all three sides absent")
	}
}
