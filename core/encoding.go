package core

import (
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/ambula-labs/ambula/crypto"
)

// An Encoder is used to encode objects of type T.
type Encoder[T any] interface {
	Encode(T) error
}

// A Decoder is used to decode objects of type T.
type Decoder[T any] interface {
	Decode(T) error
}

// u64be returns the 8-byte big-endian representation of v.
func u64be(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// encodePayload concatenates fields in the canonical protocol layout:
// each field is emitted as a big-endian uint32 length prefix followed by
// its raw bytes. Hop challenges and the walker's hash inputs are built
// with it, so generator and verifier agree byte-exactly on them. The seed
// signature and the counter-signatures are taken over raw bytes (the
// dependency and the peer signature) without this encoding.
func encodePayload(fields ...[]byte) []byte {
	size := 0
	for _, f := range fields {
		size += 4 + len(f)
	}

	buf := make([]byte, 0, size)
	for _, f := range fields {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}
	return buf
}

// decodePayload splits a canonical payload back into its fields.
func decodePayload(b []byte) ([][]byte, error) {
	fields := make([][]byte, 0, 3)
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, ErrDecoding
		}
		n := binary.BigEndian.Uint32(b[:4])
		b = b[4:]
		if uint32(len(b)) < n {
			return nil, ErrDecoding
		}
		fields = append(fields, b[:n])
		b = b[n:]
	}
	return fields, nil
}

// EncodeChallenge builds the payload a committee member is asked to sign
// at a hop: the current walker hash, the dependency and the message.
func EncodeChallenge(currentHash uint64, dependency, message crypto.Hash) []byte {
	return encodePayload(u64be(currentHash), dependency.Bytes(), message.Bytes())
}

// DecodeChallenge recovers the walker hash, dependency and message from a
// challenge payload. Used by signer services to validate a request before
// signing it.
func DecodeChallenge(payload []byte) (uint64, crypto.Hash, crypto.Hash, error) {
	fields, err := decodePayload(payload)
	if err != nil {
		return 0, crypto.Hash{}, crypto.Hash{}, err
	}
	if len(fields) != 3 || len(fields[0]) != 8 {
		return 0, crypto.Hash{}, crypto.Hash{}, ErrDecoding
	}

	dependency, err := crypto.HashFromBytes(fields[1])
	if err != nil {
		return 0, crypto.Hash{}, crypto.Hash{}, ErrDecoding
	}
	message, err := crypto.HashFromBytes(fields[2])
	if err != nil {
		return 0, crypto.Hash{}, crypto.Hash{}, ErrDecoding
	}

	return binary.BigEndian.Uint64(fields[0]), dependency, message, nil
}

// GobBlockEncoder implements Encoder for Block using encoding/gob.
type GobBlockEncoder struct {
	w io.Writer
}

// NewGobBlockEncoder returns a pointer to a GobBlockEncoder given an io.Writer.
func NewGobBlockEncoder(w io.Writer) *GobBlockEncoder {
	return &GobBlockEncoder{
		w: w,
	}
}

// Encode writes the gob encoding of Block b in the io.Writer w.
func (enc *GobBlockEncoder) Encode(b *Block) error {
	return gob.NewEncoder(enc.w).Encode(b)
}

// GobBlockDecoder implements Decoder for Block using encoding/gob.
type GobBlockDecoder struct {
	r io.Reader
}

// NewGobBlockDecoder returns a pointer to a GobBlockDecoder given an io.Reader.
func NewGobBlockDecoder(r io.Reader) *GobBlockDecoder {
	return &GobBlockDecoder{
		r: r,
	}
}

// Decode reads the gob encoding in io.Reader r in Block b.
func (dec *GobBlockDecoder) Decode(b *Block) error {
	return gob.NewDecoder(dec.r).Decode(b)
}
