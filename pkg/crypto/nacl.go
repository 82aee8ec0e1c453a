package crypto

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/foliotree/foliotree/pkg/identity"
)

// NaClCrypto is a reference Crypto implementation built on
// golang.org/x/crypto/nacl: secretbox for names (bound to a per-device
// master key) and for document bodies (under the per-document content key
// passed to SealDocument), and anonymous sealed boxes (ephemeral
// sender keys, so the wrapper need not prove its own identity) for wrapping
// per-document content keys to a recipient's public key.
type NaClCrypto struct {
	publicKey, privateKey [32]byte
	masterKey             [32]byte
}

// NewNaClCrypto constructs a reference Crypto instance for a device holding
// the given box keypair (whose public half is the account's Owner) and a
// master symmetric key used to seal names.
func NewNaClCrypto(publicKey, privateKey, masterKey [32]byte) *NaClCrypto {
	return &NaClCrypto{publicKey: publicKey, privateKey: privateKey, masterKey: masterKey}
}

// GenerateNaClKeypair generates a fresh box keypair suitable for use as an
// account's Owner public key and matching private key.
func GenerateNaClKeypair() (publicKey, privateKey [32]byte, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return publicKey, privateKey, errors.Wrap(err, "unable to generate keypair")
	}
	return *pub, *priv, nil
}

// GenerateMasterKey generates a fresh random symmetric key.
func GenerateMasterKey() ([32]byte, error) {
	var key [32]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, errors.Wrap(err, "unable to generate master key")
	}
	return key, nil
}

// GenerateContentKey implements Crypto.
func (c *NaClCrypto) GenerateContentKey() ([32]byte, error) {
	return GenerateMasterKey()
}

// SealName implements Crypto.
func (c *NaClCrypto) SealName(id identity.ID, name string) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "unable to generate nonce")
	}
	plaintext := append(append([]byte(nil), id[:]...), name...)
	return secretbox.Seal(nonce[:], plaintext, &nonce, &c.masterKey), nil
}

// OpenName implements Crypto.
func (c *NaClCrypto) OpenName(id identity.ID, sealed []byte) (string, error) {
	if len(sealed) < 24 {
		return "", errors.New("sealed name is too short to contain a nonce")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	plaintext, ok := secretbox.Open(nil, sealed[24:], &nonce, &c.masterKey)
	if !ok {
		return "", errors.New("unable to decrypt name: authentication failed")
	}
	if len(plaintext) < len(id) || !bytes.Equal(plaintext[:len(id)], id[:]) {
		return "", errors.New("decrypted name is not bound to the expected id")
	}
	return string(plaintext[len(id):]), nil
}

// WrapContentKey implements Crypto.
func (c *NaClCrypto) WrapContentKey(owner identity.Owner, key [32]byte) ([]byte, error) {
	recipientPublicKey := [32]byte(owner)
	sealed, err := box.SealAnonymous(nil, key[:], &recipientPublicKey, rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to seal content key")
	}
	return sealed, nil
}

// UnwrapContentKey implements Crypto.
func (c *NaClCrypto) UnwrapContentKey(owner identity.Owner, wrapped []byte) ([32]byte, error) {
	var key [32]byte
	if identity.Owner(c.publicKey) != owner {
		return key, errors.New("content key was wrapped for a different owner than this device holds")
	}

	opened, ok := box.OpenAnonymous(nil, wrapped, &c.publicKey, &c.privateKey)
	if !ok {
		return key, errors.New("unable to unwrap content key: authentication failed")
	}
	if len(opened) != len(key) {
		return key, errors.New("unwrapped content key has an incorrect length")
	}
	copy(key[:], opened)
	return key, nil
}

// SealDocument implements Crypto.
func (c *NaClCrypto) SealDocument(key [32]byte, body []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "unable to generate nonce")
	}
	return secretbox.Seal(nonce[:], body, &nonce, &key), nil
}

// OpenDocument implements Crypto.
func (c *NaClCrypto) OpenDocument(key [32]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, errors.New("sealed document is too short to contain a nonce")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])

	opened, ok := secretbox.Open(nil, sealed[24:], &nonce, &key)
	if !ok {
		return nil, errors.New("unable to decrypt document: authentication failed")
	}
	return opened, nil
}
