package core

import (
	"fmt"

	"github.com/ambula-labs/ambula/crypto"
)

// A Verifier replays the committee walk committed to by a proof's seed
// signature and checks every signature along it. Verification is purely
// local: no network I/O, no side effects.
type Verifier struct {
	scheme SignatureScheme
}

// NewVerifier instantiates a Verifier over a SignatureScheme.
func NewVerifier(scheme SignatureScheme) *Verifier {
	return &Verifier{
		scheme: scheme,
	}
}

// Check validates a Proof against the initiator's public key, the
// (dependency, message) pair it claims to bind, the difficulty and the
// node set. A nil return means the proof is valid; any non-nil return is
// a rejection carrying the diagnostic kind.
func (v *Verifier) Check(
	proof *Proof,
	initiator crypto.PublicKey,
	dependency crypto.Hash,
	message crypto.Hash,
	difficulty float64,
	nodes []Node,
) error {
	if proof == nil || len(proof.Signatures) == 0 {
		return fmt.Errorf("%w: empty proof", ErrInvalidProofStructure)
	}
	// Parity is structural and costs nothing: check it before touching
	// any signature.
	if len(proof.Signatures)%2 == 0 {
		return fmt.Errorf("%w: even signature count %d", ErrInvalidProofStructure, len(proof.Signatures))
	}

	s0 := proof.Signatures[0]
	if !v.scheme.Verify(initiator, s0, dependency.Bytes()) {
		return fmt.Errorf("%w: seed signature not over dependency by initiator", ErrInvalidSignature)
	}

	seed := SeedFromSignature(s0)
	committee, err := SelectCommittee(seed, nodes)
	if err != nil {
		return err
	}

	length := TourLength(seed, difficulty, len(nodes))
	if uint64(len(proof.Signatures)) != 2*length+1 {
		return fmt.Errorf("%w: expected %d signatures, got %d",
			ErrInvalidProofStructure, 2*length+1, len(proof.Signatures))
	}

	walker := newTourWalker(s0, dependency, message)
	for k := uint64(0); k < length; k++ {
		peer := committee[walker.hopIndex(len(committee))]
		peerSig := proof.Signatures[2*k+1]
		counterSig := proof.Signatures[2*k+2]

		if !v.scheme.Verify(peer.PubKey, peerSig, walker.challenge()) {
			return fmt.Errorf("%w: hop %d signature not by expected peer %s",
				ErrInvalidSignature, k, peer.PubKey.String())
		}
		if !v.scheme.Verify(initiator, counterSig, peerSig) {
			return fmt.Errorf("%w: hop %d counter-signature not by initiator",
				ErrInvalidSignature, k)
		}

		walker.advance(counterSig)
	}

	return nil
}
