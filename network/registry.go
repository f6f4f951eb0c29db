package network

import (
	"fmt"
	"sync"

	"github.com/ambula-labs/ambula/core"
	"github.com/ambula-labs/ambula/crypto"
)

// A Registry maps node identities to nodes, keyed by the Address derived
// from their public key. Registration order is preserved: the node set
// handed to the PoI engine is an ordered sequence and its order is part
// of the protocol.
type Registry struct {
	mu    sync.RWMutex
	nodes []core.Node
	index map[crypto.Address]int // PubKey.Address() -> position in nodes
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[crypto.Address]int),
	}
}

// Register adds a node to the Registry. Registering an already-known
// identity updates its entry in place.
func (r *Registry) Register(node core.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := node.PubKey.Address()
	if i, ok := r.index[addr]; ok {
		r.nodes[i] = node
		return
	}

	r.index[addr] = len(r.nodes)
	r.nodes = append(r.nodes, node)
}

// GetNode returns the node registered for a public key.
func (r *Registry) GetNode(pubKey crypto.PublicKey) (core.Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[pubKey.Address()]
	if !ok {
		return core.Node{}, fmt.Errorf("no node registered for address %s", pubKey.Address().String())
	}
	return r.nodes[i], nil
}

// Nodes returns the registered node set in registration order.
func (r *Registry) Nodes() []core.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]core.Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.nodes)
}
