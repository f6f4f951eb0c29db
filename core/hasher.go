package core

import "github.com/ambula-labs/ambula/crypto"

// A Hasher is used to compute Hash objects for a type T.
type Hasher[T any] interface {
	Hash(T) crypto.Hash
}

// BlockHasher implements the Hasher interface for Block Header.
type BlockHasher struct{}

// Hash computes the BLAKE2b-256 Hash of the Header bytes.
func (BlockHasher) Hash(h *Header) crypto.Hash {
	return crypto.Sum(h.Bytes())
}
