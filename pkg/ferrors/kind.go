// Package ferrors provides the error taxonomy shared across the tree,
// repo, merge, sync, and sharing packages, built on top of
// github.com/pkg/errors for wrapping and cause extraction rather than bare
// fmt.Errorf, matching the teacher's near-universal use of pkg/errors.
package ferrors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// Kind enumerates the error taxonomy. Kind identifies a class of failure,
// not a specific Go type, so that call sites can branch on IsKind without
// caring which package constructed the error.
type Kind int

const (
	// KindUnknown is the zero value and matches no classified error.
	KindUnknown Kind = iota
	// KindNotFound indicates an id absent in the requested source.
	KindNotFound
	// KindPermissionDenied indicates invariant 9 was violated.
	KindPermissionDenied
	// KindInvalidArgument indicates a malformed request: empty name, name
	// with separator, link to owned/link/nonexistent, duplicate link,
	// share to self, and similar caller errors.
	KindInvalidArgument
	// KindRootModification indicates an attempt to mutate a root node.
	KindRootModification
	// KindSharedSubtreeConflict indicates invariant 4 was violated.
	KindSharedSubtreeConflict
	// KindNothingToMerge indicates the merge_maybe all-None case.
	KindNothingToMerge
	// KindIrreconcilableConflict indicates a merge failed post-validation.
	KindIrreconcilableConflict
	// KindStaleVersion indicates a push was rejected; triggers retry.
	KindStaleVersion
	// KindIO indicates an infrastructural storage failure.
	KindIO
	// KindNetwork indicates an infrastructural network failure.
	KindNetwork
	// KindCrypto indicates an infrastructural cryptographic failure.
	KindCrypto
	// KindCancelled indicates the operation was cancelled at a suspension
	// point.
	KindCancelled
)

// String renders the kind for logging and error messages.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindRootModification:
		return "root_modification"
	case KindSharedSubtreeConflict:
		return "shared_subtree_conflict"
	case KindNothingToMerge:
		return "nothing_to_merge"
	case KindIrreconcilableConflict:
		return "irreconcilable_conflict"
	case KindStaleVersion:
		return "stale_version"
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	case KindCrypto:
		return "crypto"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with wrapped context. It implements the error
// interface and supports errors.Unwrap so that the standard library's
// errors.Is/As see through to the underlying error. github.com/pkg/errors'
// Cause does not see through an *Error; this package's Cause does.
type Error struct {
	Kind  Kind
	Err   error
	Extra string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Extra != "" {
		return e.Kind.String() + ": " + e.Extra + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a new Error of the given kind wrapping message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Err: errors.New(message)}
}

// Wrap constructs a new Error of the given kind wrapping err with
// additional context, using github.com/pkg/errors so the original stack
// trace (if any) is preserved.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, message)}
}

// WithID attaches an id to an existing error for kinds like
// IrreconcilableConflict that carry an offending identifier.
func WithID(kind Kind, err error, id string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err, Extra: id}
}

// IsKind reports whether err (or any error in its chain) is a *Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var fe *Error
	for stderrors.As(err, &fe) {
		if fe.Kind == kind {
			return true
		}
		err = fe.Err
	}
	return false
}

// Cause returns the innermost wrapped error, mirroring
// github.com/pkg/errors.Cause for *Error values.
func Cause(err error) error {
	if fe, ok := err.(*Error); ok {
		return errors.Cause(fe.Err)
	}
	return errors.Cause(err)
}
