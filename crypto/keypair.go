package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SIG_BYTE_SIZE is the length of a Signature in bytes: a compact
// secp256k1 signature [R || S || V] with a trailing recovery id.
const SIG_BYTE_SIZE = 65

// PUBKEY_BYTE_SIZE is the length of a compressed PublicKey in bytes.
const PUBKEY_BYTE_SIZE = 33

var (
	ErrMalformedSignature = errors.New("signature has the wrong byte length")
	ErrMalformedPublicKey = errors.New("public key has the wrong byte length")
)

// A PrivateKey is used for signing objects.
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// Sign returns the Signature of a Hash digest.
func (k PrivateKey) Sign(digest Hash) (Signature, error) {
	sig, err := ethcrypto.Sign(digest.Bytes(), k.key)
	if err != nil {
		return nil, err
	}

	return Signature(sig), nil
}

// NewPrivateKeyFromReader returns a random PrivateKey from a io.Reader entropy.
func NewPrivateKeyFromReader(r io.Reader) (PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), r)
	if err != nil {
		return PrivateKey{}, err
	}

	return PrivateKey{
		key: key,
	}, nil
}

// GeneratePrivateKey returns a PrivateKey randomized using cryptographically secure entropy.
func GeneratePrivateKey() (PrivateKey, error) {
	return NewPrivateKeyFromReader(rand.Reader)
}

// PublicKey returns the compressed PublicKey of the PrivateKey.
func (k PrivateKey) PublicKey() PublicKey {
	return ethcrypto.CompressPubkey(&k.key.PublicKey)
}

// PublicKey is used to verify a PrivateKey signature.
type PublicKey []byte

// String returns a hexadecimal string encoding of the PublicKey.
func (k PublicKey) String() string {
	return hex.EncodeToString(k)
}

// Address returns the public Address corresponding to the PublicKey.
func (k PublicKey) Address() Address {
	return Address(Sum(k))
}

// A Signature is used to prove that some data was signed by a PrivateKey.
// It has a fixed width of SIG_BYTE_SIZE bytes.
type Signature []byte

// String returns a hexadecimal string encoding of the Signature.
func (sig Signature) String() string {
	return hex.EncodeToString(sig)
}

// PublicKey recovers the compressed PublicKey of the signer from the
// Signature and the signed Hash digest.
func (sig Signature) PublicKey(digest Hash) (PublicKey, error) {
	if len(sig) != SIG_BYTE_SIZE {
		return nil, ErrMalformedSignature
	}

	pub, err := ethcrypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return nil, err
	}

	return ethcrypto.CompressPubkey(pub), nil
}

// Verify checks that the Signature was produced over the Hash digest by
// the PrivateKey matching the pubKey PublicKey.
func (sig Signature) Verify(pubKey PublicKey, digest Hash) bool {
	if len(pubKey) != PUBKEY_BYTE_SIZE {
		return false
	}

	sigPubKey, err := sig.PublicKey(digest)
	if err != nil {
		return false
	}

	return bytes.Equal(sigPubKey, pubKey)
}
