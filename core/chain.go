package core

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"

	"github.com/ambula-labs/ambula/crypto"
)

// VERIFIED_CACHE_SIZE bounds the cache of block hashes whose proof was
// already replayed.
const VERIFIED_CACHE_SIZE = 1024

// A Blockchain is an append-only chain of proof-carrying blocks. Every
// appended block must extend the tip and carry a valid
// Proof-of-Interaction over the registered node set.
type Blockchain struct {
	mu         sync.RWMutex
	logger     log.Logger
	blocks     []*Block
	nodes      []Node
	difficulty float64
	verifier   *Verifier
	verified   *lru.Cache
}

// NewBlockchain initializes a Blockchain from a genesis Block. The node
// set order is part of the protocol and is kept as given.
func NewBlockchain(genesis *Block, nodes []Node, difficulty float64, scheme SignatureScheme) (*Blockchain, error) {
	cache, err := lru.New(VERIFIED_CACHE_SIZE)
	if err != nil {
		return nil, err
	}

	return &Blockchain{
		logger:     log.New("module", "chain"),
		blocks:     []*Block{genesis},
		nodes:      nodes,
		difficulty: difficulty,
		verifier:   NewVerifier(scheme),
		verified:   cache,
	}, nil
}

// Tip returns the last Block of the chain.
func (bc *Blockchain) Tip() *Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.blocks[len(bc.blocks)-1]
}

// Height returns the Height of the chain tip.
func (bc *Blockchain) Height() uint32 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.blocks[len(bc.blocks)-1].Height
}

// Nodes returns the node set proofs are checked against.
func (bc *Blockchain) Nodes() []Node {
	return bc.nodes
}

// Difficulty returns the difficulty proofs are checked against.
func (bc *Blockchain) Difficulty() float64 {
	return bc.difficulty
}

// OnChain checks whether hash is the Header Hash of a Block of the chain.
// Signer services use it to refuse challenges with unknown dependencies.
func (bc *Blockchain) OnChain(hash crypto.Hash) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	for _, block := range bc.blocks {
		if block.HeaderHash(BlockHasher{}) == hash {
			return true
		}
	}
	return false
}

// AddBlock validates a Block and appends it to the chain. The block must
// extend the tip and its proof must replay cleanly against the node set.
func (bc *Blockchain) AddBlock(block *Block) error {
	if err := bc.validateBlock(block); err != nil {
		return err
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()

	tip := bc.blocks[len(bc.blocks)-1]
	if block.Height != tip.Height+1 || block.PrevBlockHash != tip.HeaderHash(BlockHasher{}) {
		return fmt.Errorf("block [%s] does not extend the chain tip", block.HeaderHash(BlockHasher{}).String())
	}

	bc.blocks = append(bc.blocks, block)

	// The proof was validated above, so the proposer key recovers.
	proposer, _ := block.Proposer()
	bc.logger.Info("block appended",
		"height", block.Height,
		"hash", block.HeaderHash(BlockHasher{}).String(),
		"proposer", proposer.Address().String(),
		"tour", block.Proof.Length())

	return nil
}

// validateBlock checks the Block data hash and replays its proof. Proofs
// of blocks already seen are served from the verified cache.
func (bc *Blockchain) validateBlock(block *Block) error {
	if block.Proof == nil {
		return ErrBlockMissingProof
	}

	if err := block.VerifyData(); err != nil {
		return err
	}

	blockHash := block.HeaderHash(BlockHasher{})
	if _, ok := bc.verified.Get(blockHash); ok {
		return nil
	}

	proposer, err := block.Proposer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if err := bc.verifier.Check(block.Proof, proposer, block.PrevBlockHash, block.DataHash, bc.difficulty, bc.nodes); err != nil {
		return fmt.Errorf("proof verification failed for block [%s]: %w", blockHash.String(), err)
	}

	bc.verified.Add(blockHash, struct{}{})
	return nil
}
