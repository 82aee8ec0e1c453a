package identity

import (
	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/encoding"
)

// Owner is the public-key identity of the account that created a node. It is
// immutable once constructed and wraps whatever public key material the
// crypto capability produces (a fixed-size byte array, sized for an X25519 or
// Ed25519 public key).
type Owner [32]byte

// NilOwner is the zero-value Owner, used where no owner applies (never a
// valid node owner).
var NilOwner Owner

// OwnerFromBytes constructs an Owner from raw public key bytes.
func OwnerFromBytes(b []byte) (Owner, error) {
	var owner Owner
	if len(b) != len(owner) {
		return owner, errors.Errorf("invalid owner length: %d", len(b))
	}
	copy(owner[:], b)
	return owner, nil
}

// String renders the Owner using Base62.
func (o Owner) String() string {
	return encoding.EncodeBase62(o[:])
}

// ParseOwner parses a Base62-encoded Owner produced by String.
func ParseOwner(s string) (Owner, error) {
	decoded, err := encoding.DecodeBase62(s)
	if err != nil {
		return Owner{}, errors.Wrap(err, "unable to decode owner")
	}
	return OwnerFromBytes(decoded)
}

// Equal reports whether two owners refer to the same account.
func (o Owner) Equal(other Owner) bool {
	return o == other
}
