package crypto

import "encoding/hex"

// ADDR_BYTE_SIZE is the length of the Address in bytes.
const ADDR_BYTE_SIZE = 32

// An Address is the hash-derived identity of a PublicKey. Being a
// fixed-width comparable value it is what node lookups key on.
type Address [ADDR_BYTE_SIZE]uint8

// Bytes returns the byte slice representation of the Address.
func (addr Address) Bytes() []byte {
	b := make([]byte, ADDR_BYTE_SIZE)
	copy(b, addr[:])
	return b
}

// String returns the hexadecimal string representation of the Address.
func (addr Address) String() string {
	return hex.EncodeToString(addr.Bytes())
}
