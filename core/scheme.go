package core

import "github.com/ambula-labs/ambula/crypto"

// A SignatureScheme is the signing capability the engine is built over.
// Signatures must be fixed-width so proofs have a canonical encoding.
type SignatureScheme interface {
	Sign(key crypto.PrivateKey, msg []byte) (crypto.Signature, error)
	Verify(key crypto.PublicKey, sig crypto.Signature, msg []byte) bool
	SignatureSize() int
}

// Secp256k1Scheme signs the BLAKE2b-256 digest of a message with
// secp256k1, producing 65-byte recoverable signatures.
type Secp256k1Scheme struct{}

func (Secp256k1Scheme) Sign(key crypto.PrivateKey, msg []byte) (crypto.Signature, error) {
	return key.Sign(crypto.Sum(msg))
}

func (Secp256k1Scheme) Verify(key crypto.PublicKey, sig crypto.Signature, msg []byte) bool {
	return sig.Verify(key, crypto.Sum(msg))
}

func (Secp256k1Scheme) SignatureSize() int {
	return crypto.SIG_BYTE_SIZE
}
