// Package network implements the HTTP JSON-RPC transport of the PoI
// signature protocol: the oracle a proposer uses to reach committee
// members, and the signer service answering on the other end.
package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ambula-labs/ambula/core"
	"github.com/ambula-labs/ambula/crypto"
)

// SIGN_METHOD is the JSON-RPC method a signer service answers: the
// request carries the challenge payload as a single hex parameter and
// the response result is the hex-encoded signature.
const SIGN_METHOD = "sign"

// RPCOracle implements core.SignatureOracle over HTTP JSON-RPC.
// Connections are cached per node locator.
type RPCOracle struct {
	mu      sync.Mutex
	clients map[string]*rpc.Client
	logger  log.Logger
}

// NewRPCOracle returns a RPCOracle with an empty connection cache.
func NewRPCOracle() *RPCOracle {
	return &RPCOracle{
		clients: make(map[string]*rpc.Client),
		logger:  log.New("module", "oracle"),
	}
}

// RequestSignature asks the node's signer service for a signature over
// payload. The context bounds the whole call, dialing included.
func (o *RPCOracle) RequestSignature(ctx context.Context, node core.Node, payload []byte) (crypto.Signature, error) {
	client, err := o.client(ctx, node.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to reach signer %s: %w", node.Addr, err)
	}

	var result hexutil.Bytes
	if err := client.CallContext(ctx, &result, SIGN_METHOD, hexutil.Bytes(payload)); err != nil {
		o.evict(node.Addr, client)
		return nil, fmt.Errorf("sign request to %s failed: %w", node.Addr, err)
	}

	if len(result) != crypto.SIG_BYTE_SIZE {
		o.logger.Warn("signer returned a malformed signature", "node", node.Addr, "len", len(result))
		return nil, crypto.ErrMalformedSignature
	}

	return crypto.Signature(result), nil
}

// Close tears down every cached connection.
func (o *RPCOracle) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, client := range o.clients {
		client.Close()
	}
	o.clients = make(map[string]*rpc.Client)
}

func (o *RPCOracle) client(ctx context.Context, addr string) (*rpc.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if client, ok := o.clients[addr]; ok {
		return client, nil
	}

	client, err := rpc.DialContext(ctx, addr)
	if err != nil {
		return nil, err
	}

	o.clients[addr] = client
	return client, nil
}

// evict drops a cached connection after a failed call so the next
// attempt redials.
func (o *RPCOracle) evict(addr string, client *rpc.Client) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.clients[addr] == client {
		delete(o.clients, addr)
		client.Close()
	}
}
