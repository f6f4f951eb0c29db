package core

import "github.com/ambula-labs/ambula/crypto"

// A Node is a member of the global node set N. Its PubKey is the identity
// used for committee membership and signature verification; Addr is the
// transport locator used only when requesting signatures.
type Node struct {
	Name   string
	Addr   string
	PubKey crypto.PublicKey
}
