package core

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/ambula-labs/ambula/crypto"
)

// hash64 is the 64-bit indexing hash driving the tour: the first 8 bytes
// of BLAKE2b-256, big-endian. It only ever feeds `mod |S|` and is not a
// security primitive, but it must be identical on every platform.
func hash64(data []byte) uint64 {
	h := blake2b.Sum256(data)
	return binary.BigEndian.Uint64(h[:8])
}

// tourWalker is the rolling-hash state machine shared by the generator
// and the verifier. Starting from h0 = hash64(encode(s0, m)), each hop k
// picks committee index h mod |S|, challenges that peer, and folds the
// initiator's counter-signature back into the hash.
type tourWalker struct {
	h          uint64
	k          uint64
	dependency crypto.Hash
	message    crypto.Hash
}

func newTourWalker(s0 crypto.Signature, dependency, message crypto.Hash) *tourWalker {
	return &tourWalker{
		h:          hash64(encodePayload(s0, message.Bytes())),
		dependency: dependency,
		message:    message,
	}
}

// hopIndex returns the committee index of the current hop's signer.
func (w *tourWalker) hopIndex(committeeSize int) int {
	return int(w.h % uint64(committeeSize))
}

// challenge returns the payload the current hop's signer must sign.
func (w *tourWalker) challenge() []byte {
	return EncodeChallenge(w.h, w.dependency, w.message)
}

// advance folds the initiator's counter-signature into the rolling hash
// and moves to the next hop.
func (w *tourWalker) advance(counterSig crypto.Signature) {
	w.h = hash64(encodePayload(counterSig))
	w.k++
}
