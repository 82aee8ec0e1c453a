package encoding

import (
	"github.com/eknkc/basex"
)

// base62Alphabet is the alphabet used to encode the fixed-size byte arrays
// this package's callers hand it: identity.ID and identity.Owner values
// (pkg/identity) and the NaCl key material persisted by config.KeyMaterial
// (pkg/config). Base62 keeps those values filesystem- and YAML-safe without
// the padding characters Base64 would introduce.
const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// base62 is the shared encoder; basex.Encoding is safe for concurrent use.
var base62 *basex.Encoding

func init() {
	encoder, err := basex.NewEncoding(base62Alphabet)
	if err != nil {
		panic("unable to initialize Base62 encoder")
	}
	base62 = encoder
}

// EncodeBase62 encodes value (an id, owner, or key) as a Base62 string.
func EncodeBase62(value []byte) string {
	return base62.Encode(value)
}

// DecodeBase62 decodes a Base62 string produced by EncodeBase62 back into
// its raw bytes, returning an error if value contains characters outside
// base62Alphabet.
func DecodeBase62(value string) ([]byte, error) {
	return base62.Decode(value)
}
