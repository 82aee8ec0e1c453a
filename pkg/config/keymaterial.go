package config

import (
	"os"

	"github.com/pkg/errors"

	"github.com/foliotree/foliotree/pkg/crypto"
	"github.com/foliotree/foliotree/pkg/encoding"
	"github.com/foliotree/foliotree/pkg/identity"
)

// KeyMaterial is the device's private key material: the box keypair backing
// its account Owner identity and the secretbox master key used to seal
// names. It is stored separately from Configuration (which is
// safe to share or check in) in a 0600 file inside the foliotree data
// directory, since encoding.MarshalAndSave always writes with owner-only
// permissions.
type KeyMaterial struct {
	// PublicKey is the Base62-encoded box public key; this is also the
	// account's identity.Owner value.
	PublicKey string `yaml:"publicKey"`
	// PrivateKey is the Base62-encoded box private key.
	PrivateKey string `yaml:"privateKey"`
	// MasterKey is the Base62-encoded secretbox master key.
	MasterKey string `yaml:"masterKey"`
}

// LoadOrCreateKeyMaterial loads KeyMaterial from path, generating and saving
// a fresh keypair and master key if no file exists yet. This is the device's
// one-time bootstrap: once created, the same key material is reused for the
// life of the device's repo.
func LoadOrCreateKeyMaterial(path string) (*KeyMaterial, error) {
	km := &KeyMaterial{}
	err := encoding.LoadAndUnmarshalYAML(path, km)
	if err == nil {
		return km, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	pub, priv, err := crypto.GenerateNaClKeypair()
	if err != nil {
		return nil, err
	}
	master, err := crypto.GenerateMasterKey()
	if err != nil {
		return nil, err
	}

	km = &KeyMaterial{
		PublicKey:  encoding.EncodeBase62(pub[:]),
		PrivateKey: encoding.EncodeBase62(priv[:]),
		MasterKey:  encoding.EncodeBase62(master[:]),
	}
	if err := encoding.MarshalAndSaveYAML(path, km); err != nil {
		return nil, err
	}
	return km, nil
}

// Crypto decodes the key material into a ready-to-use crypto.Crypto
// capability and the identity.Owner it corresponds to.
func (k *KeyMaterial) Crypto() (crypto.Crypto, identity.Owner, error) {
	pub, err := decodeKey(k.PublicKey)
	if err != nil {
		return nil, identity.Owner{}, errors.Wrap(err, "unable to decode public key")
	}
	priv, err := decodeKey(k.PrivateKey)
	if err != nil {
		return nil, identity.Owner{}, errors.Wrap(err, "unable to decode private key")
	}
	master, err := decodeKey(k.MasterKey)
	if err != nil {
		return nil, identity.Owner{}, errors.Wrap(err, "unable to decode master key")
	}

	owner, err := identity.OwnerFromBytes(pub[:])
	if err != nil {
		return nil, identity.Owner{}, err
	}
	return crypto.NewNaClCrypto(pub, priv, master), owner, nil
}

// decodeKey Base62-decodes a key and validates its length.
func decodeKey(encoded string) ([32]byte, error) {
	var key [32]byte
	decoded, err := encoding.DecodeBase62(encoded)
	if err != nil {
		return key, err
	}
	if len(decoded) != len(key) {
		return key, errors.Errorf("decoded key has incorrect length %d", len(decoded))
	}
	copy(key[:], decoded)
	return key, nil
}
