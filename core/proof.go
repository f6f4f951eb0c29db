package core

import (
	"encoding/binary"

	"github.com/ambula-labs/ambula/crypto"
)

// A Proof is a complete Proof-of-Interaction: the initiator's seed
// signature s0 followed by L (peer signature, counter-signature) pairs,
// 2L+1 fixed-width signatures in total.
type Proof struct {
	Signatures []crypto.Signature
}

// Seed returns the seed signature s0.
func (p *Proof) Seed() crypto.Signature {
	if len(p.Signatures) == 0 {
		return nil
	}
	return p.Signatures[0]
}

// Length returns the number of tour hops recorded in the Proof.
func (p *Proof) Length() int {
	if len(p.Signatures) == 0 {
		return 0
	}
	return (len(p.Signatures) - 1) / 2
}

// MarshalBinary encodes the Proof in its wire format: a big-endian uint32
// signature count followed by that many SIG_BYTE_SIZE blobs.
func (p *Proof) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 4+len(p.Signatures)*crypto.SIG_BYTE_SIZE)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p.Signatures)))

	for _, sig := range p.Signatures {
		if len(sig) != crypto.SIG_BYTE_SIZE {
			return nil, crypto.ErrMalformedSignature
		}
		buf = append(buf, sig...)
	}
	return buf, nil
}

// UnmarshalBinary decodes a Proof from its wire format. Only the byte
// layout is validated here; the structural 2L+1 law and the signatures
// themselves are the verifier's job.
func (p *Proof) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return ErrDecoding
	}

	count := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if count == 0 || uint32(len(data)) != count*crypto.SIG_BYTE_SIZE {
		return ErrDecoding
	}

	sigs := make([]crypto.Signature, count)
	for i := range sigs {
		sig := make(crypto.Signature, crypto.SIG_BYTE_SIZE)
		copy(sig, data[:crypto.SIG_BYTE_SIZE])
		sigs[i] = sig
		data = data[crypto.SIG_BYTE_SIZE:]
	}

	p.Signatures = sigs
	return nil
}
