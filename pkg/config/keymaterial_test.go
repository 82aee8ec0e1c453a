package config

import (
	"path/filepath"
	"testing"
)

func TestLoadOrCreateKeyMaterialGeneratesOnFirstCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yml")

	created, err := LoadOrCreateKeyMaterial(path)
	if err != nil {
		t.Fatal(err)
	}
	if created.PublicKey == "" || created.PrivateKey == "" || created.MasterKey == "" {
		t.Fatal("expected generated key material to be populated")
	}

	reloaded, err := LoadOrCreateKeyMaterial(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PublicKey != created.PublicKey || reloaded.PrivateKey != created.PrivateKey {
		t.Error("expected a second call to reuse the persisted key material rather than regenerating it")
	}
}

func TestKeyMaterialCryptoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yml")
	km, err := LoadOrCreateKeyMaterial(path)
	if err != nil {
		t.Fatal(err)
	}

	cryptoCapability, owner, err := km.Crypto()
	if err != nil {
		t.Fatal(err)
	}

	key, err := cryptoCapability.GenerateContentKey()
	if err != nil {
		t.Fatal(err)
	}
	wrapped, err := cryptoCapability.WrapContentKey(owner, key)
	if err != nil {
		t.Fatal(err)
	}
	unwrapped, err := cryptoCapability.UnwrapContentKey(owner, wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if key != unwrapped {
		t.Error("expected unwrapped content key to match the original")
	}
}
