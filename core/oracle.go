package core

import (
	"context"

	"github.com/ambula-labs/ambula/crypto"
)

// A SignatureOracle requests a signature over a payload from a remote
// node. It is the only effectful collaborator of the proof generator;
// implementations decide the transport.
type SignatureOracle interface {
	RequestSignature(ctx context.Context, node Node, payload []byte) (crypto.Signature, error)
}
