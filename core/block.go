package core

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/ambula-labs/ambula/crypto"
)

var (
	ErrBlockMissingProof = errors.New("the block carries no proof of interaction")
)

// PROTOCOL_VERSION represents the version of the Block format.
const PROTOCOL_VERSION = 1

// A Header is storing a Block metadatas. PrevBlockHash is the dependency
// of the block's proof; DataHash is its message.
type Header struct {
	Version       uint32
	DataHash      crypto.Hash
	PrevBlockHash crypto.Hash
	Height        uint32
	Timestamp     int64
}

// Bytes returns the byte slice representation of the Header.
func (h *Header) Bytes() []byte {
	buf := &bytes.Buffer{}
	enc := gob.NewEncoder(buf)
	if err := enc.Encode(h); err != nil {
		panic(err)
	}

	return buf.Bytes()
}

// A Block contains an opaque Payload and the Proof-of-Interaction its
// proposer toured the network for.
type Block struct {
	*Header
	Payload []byte
	Proof   *Proof

	headerHash crypto.Hash
}

// NewBlock returns a pointer to a Block given a complete Header and a payload.
func NewBlock(h *Header, payload []byte) *Block {
	return &Block{
		Header:  h,
		Payload: payload,
	}
}

// NewBlockFromPrevHeader returns a Block initialized with the metadatas of the parent Block.
func NewBlockFromPrevHeader(prevHeader *Header, payload []byte) *Block {
	header := &Header{
		Version:       PROTOCOL_VERSION,
		Height:        prevHeader.Height + 1,
		DataHash:      crypto.Sum(payload),
		PrevBlockHash: BlockHasher{}.Hash(prevHeader),
		Timestamp:     time.Now().UnixNano(),
	}

	return NewBlock(header, payload)
}

// SetPayload replaces the Block Payload and recomputes the DataHash.
// This function invalidates the cached Block Hash.
func (b *Block) SetPayload(payload []byte) {
	b.Payload = payload
	b.DataHash = crypto.Sum(payload)
	b.InvalidateHeaderHash()
}

// VerifyData checks that the Block Payload hash is matching the Header DataHash.
func (b *Block) VerifyData() error {
	if crypto.Sum(b.Payload) != b.DataHash {
		return fmt.Errorf("block [%s] data hash verification failed", b.HeaderHash(BlockHasher{}).String())
	}
	return nil
}

// Proposer recovers the PublicKey of the node that generated the Block
// Proof from its seed signature.
func (b *Block) Proposer() (crypto.PublicKey, error) {
	if b.Proof == nil || len(b.Proof.Signatures) == 0 {
		return nil, ErrBlockMissingProof
	}

	// The seed signature covers the dependency, so the proposer key is
	// recoverable from it.
	return b.Proof.Seed().PublicKey(crypto.Sum(b.PrevBlockHash.Bytes()))
}

// Decode the Decoder into the Block.
func (b *Block) Decode(dec Decoder[*Block]) error {
	return dec.Decode(b)
}

// Encode the Block into the Encoder.
func (b *Block) Encode(enc Encoder[*Block]) error {
	return enc.Encode(b)
}

// HeaderHash returns the Block Header Hash computed using the Hasher.
// It uses a cache and only recomputes the Hash if it is unset or was invalidated.
// Methods that mutates the Block should invalidate the Hash using InvalidateHeaderHash.
func (b *Block) HeaderHash(hasher Hasher[*Header]) crypto.Hash {
	if b.headerHash.IsZero() {
		b.headerHash = hasher.Hash(b.Header)
	}
	return b.headerHash
}

// InvalidateHeaderHash invalidates the Block Hash cache.
func (b *Block) InvalidateHeaderHash() {
	b.headerHash = crypto.Hash{}
}
