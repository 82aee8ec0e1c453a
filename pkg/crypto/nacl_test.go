package crypto

import (
	"testing"

	"github.com/foliotree/foliotree/pkg/identity"
)

func newTestCrypto(t *testing.T) (*NaClCrypto, identity.Owner) {
	t.Helper()
	pub, priv, err := GenerateNaClKeypair()
	if err != nil {
		t.Fatal(err)
	}
	master, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	return NewNaClCrypto(pub, priv, master), identity.Owner(pub)
}

func TestSealAndOpenNameRoundTrip(t *testing.T) {
	c, _ := newTestCrypto(t)
	id := identity.NewID()

	sealed, err := c.SealName(id, "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	name, err := c.OpenName(id, sealed)
	if err != nil {
		t.Fatal(err)
	}
	if name != "notes.md" {
		t.Errorf("got %q, want notes.md", name)
	}
}

func TestOpenNameRejectsWrongID(t *testing.T) {
	c, _ := newTestCrypto(t)
	sealed, err := c.SealName(identity.NewID(), "notes.md")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.OpenName(identity.NewID(), sealed); err == nil {
		t.Error("expected decryption to fail for a mismatched id")
	}
}

func TestWrapAndUnwrapContentKeyRoundTrip(t *testing.T) {
	c, owner := newTestCrypto(t)
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}

	wrapped, err := c.WrapContentKey(owner, key)
	if err != nil {
		t.Fatal(err)
	}
	unwrapped, err := c.UnwrapContentKey(owner, wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if unwrapped != key {
		t.Error("unwrapped key does not match original")
	}
}

func TestUnwrapContentKeyRejectsWrongOwner(t *testing.T) {
	c, _ := newTestCrypto(t)
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}
	otherOwner := identity.Owner{}
	otherOwner[0] = 0xff

	wrapped, err := c.WrapContentKey(otherOwner, key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.UnwrapContentKey(otherOwner, wrapped); err == nil {
		t.Error("expected unwrap to fail for an owner this device does not hold the key for")
	}
}

func TestSealAndOpenDocumentRoundTrip(t *testing.T) {
	c, _ := newTestCrypto(t)
	key, err := GenerateMasterKey()
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := c.SealDocument(key, []byte("hello, world"))
	if err != nil {
		t.Fatal(err)
	}
	opened, err := c.OpenDocument(key, sealed)
	if err != nil {
		t.Fatal(err)
	}
	if string(opened) != "hello, world" {
		t.Errorf("got %q", opened)
	}
}
