package crypto

import (
	"github.com/iov-one/stanza"
	"github.com/iov-one/stanza/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used in the Conditions we generate for signing keys.
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key: creating
// signatures for a message and exposing the public identity.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() PublicKey
}

// PublicKey is an ed25519 public key that can verify signatures and be
// rendered as a Condition.
type PublicKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// Validate returns an error if the key data has the wrong size.
func (p PublicKey) Validate() error {
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInput, "public key size: %d", len(p.Ed25519))
	}
	return nil
}

// Verify verifies the signature was created with this message and public
// key.
func (p PublicKey) Verify(message, sig []byte) bool {
	if len(p.Ed25519) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig)
}

// Condition encodes the public key into a stanza permission.
func (p PublicKey) Condition() stanza.Condition {
	return stanza.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is a shortcut for Condition().Address().
func (p PublicKey) Address() stanza.Address {
	return p.Condition().Address()
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte `json:"ed25519"`
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key.
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "private key size: %d", len(p.Ed25519))
	}
	return ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message), nil
}

// PublicKey returns the corresponding public key.
func (p *PrivateKey) PublicKey() PublicKey {
	priv := ed25519.PrivateKey(p.Ed25519)
	return PublicKey{
		Ed25519: priv.Public().(ed25519.PublicKey),
	}
}

// GenPrivKeyEd25519 returns a random new private key.
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{
		Ed25519: priv,
	}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness, or
// for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed [ed25519.SeedSize]byte) *PrivateKey {
	priv := ed25519.NewKeyFromSeed(seed[:])
	return &PrivateKey{
		Ed25519: priv,
	}
}
