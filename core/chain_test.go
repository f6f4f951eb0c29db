package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambula-labs/ambula/crypto"
)

func testChain(t *testing.T, net *testNetwork) *Blockchain {
	chain, err := NewBlockchain(testGenesisBlock(), net.nodes, 20.0, Secp256k1Scheme{})
	require.NoError(t, err)
	return chain
}

// proposeBlock tours the test network and returns a proof-carrying block
// extending the chain tip.
func proposeBlock(t *testing.T, chain *Blockchain, net *testNetwork, initiator crypto.PrivateKey, payload []byte) *Block {
	block := NewBlockFromPrevHeader(chain.Tip().Header, payload)

	proof, err := testGenerator(net).Generate(
		context.Background(), initiator, block.PrevBlockHash, block.DataHash, chain.Difficulty(), chain.Nodes())
	require.NoError(t, err)
	block.Proof = proof

	return block
}

func TestBlockchainAddBlock(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	chain := testChain(t, net)
	assert.Equal(t, uint32(0), chain.Height())

	block := proposeBlock(t, chain, net, initiator, []byte("block #1"))
	require.NoError(t, chain.AddBlock(block))

	assert.Equal(t, uint32(1), chain.Height())
	assert.Equal(t, block, chain.Tip())
	assert.True(t, chain.OnChain(block.HeaderHash(BlockHasher{})))
	assert.False(t, chain.OnChain(crypto.Sum([]byte("unknown"))))

	next := proposeBlock(t, chain, net, initiator, []byte("block #2"))
	require.NoError(t, chain.AddBlock(next))
	assert.Equal(t, uint32(2), chain.Height())
}

func TestBlockchainRejectsMissingProof(t *testing.T) {
	net := newTestNetwork(t, 10)
	chain := testChain(t, net)

	block := NewBlockFromPrevHeader(chain.Tip().Header, []byte("block #1"))
	assert.ErrorIs(t, chain.AddBlock(block), ErrBlockMissingProof)
}

func TestBlockchainRejectsTamperedPayload(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	chain := testChain(t, net)
	block := proposeBlock(t, chain, net, initiator, []byte("block #1"))
	block.Payload = []byte("rewritten")

	assert.Error(t, chain.AddBlock(block))
	assert.Equal(t, uint32(0), chain.Height())
}

func TestBlockchainRejectsTamperedProof(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	chain := testChain(t, net)
	block := proposeBlock(t, chain, net, initiator, []byte("block #1"))
	block.Proof.Signatures[1][0] ^= 0x01

	assert.Error(t, chain.AddBlock(block))
}

func TestBlockchainRejectsNonExtendingBlock(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	chain := testChain(t, net)

	// A block built on the genesis header no longer extends the tip once
	// another block landed.
	stale := proposeBlock(t, chain, net, initiator, []byte("stale"))
	fresh := proposeBlock(t, chain, net, initiator, []byte("fresh"))
	require.NoError(t, chain.AddBlock(fresh))

	assert.Error(t, chain.AddBlock(stale))
	assert.Equal(t, uint32(1), chain.Height())
}
