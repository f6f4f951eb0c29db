package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ambula-labs/ambula/core"
	"github.com/ambula-labs/ambula/crypto"
	"github.com/ambula-labs/ambula/network"
)

// NETWORK_SIZE is the number of signer nodes spawned by the demo.
const NETWORK_SIZE = 10

// DIFFICULTY is the mean tour length of the demo network.
const DIFFICULTY = 20.0

var nodeNames = []string{
	"alice", "bob", "charlie", "dave", "eve",
	"ferdie", "george", "heidi", "ivan", "judy",
}

// main spins up a local network of signer services, generates one
// Proof-of-Interaction against it and verifies the resulting block.
func main() {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo,
		log.StreamHandler(os.Stderr, log.TerminalFormat(true))))
	logger := log.New("module", "demo")

	if err := run(logger); err != nil {
		logger.Crit("demo failed", "err", err)
	}
}

func run(logger log.Logger) error {
	scheme := core.Secp256k1Scheme{}

	genesisPayload := []byte("ambula genesis")
	genesis := core.NewBlock(&core.Header{
		Version:   core.PROTOCOL_VERSION,
		DataHash:  crypto.Sum(genesisPayload),
		Timestamp: time.Now().UnixNano(),
	}, genesisPayload)

	// One keypair and one listener per node; the node set order is the
	// registration order.
	registry := network.NewRegistry()
	keys := make([]crypto.PrivateKey, NETWORK_SIZE)
	listeners := make([]net.Listener, NETWORK_SIZE)

	for i := 0; i < NETWORK_SIZE; i++ {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return err
		}
		keys[i] = key

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		listeners[i] = l

		registry.Register(core.Node{
			Name:   nodeNames[i],
			Addr:   "http://" + l.Addr().String(),
			PubKey: key.PublicKey(),
		})
	}

	chain, err := core.NewBlockchain(genesis, registry.Nodes(), DIFFICULTY, scheme)
	if err != nil {
		return err
	}

	servers := make([]*http.Server, NETWORK_SIZE)
	for i := 0; i < NETWORK_SIZE; i++ {
		signer := network.NewSigner(network.SignerOpts{
			PrivateKey: keys[i],
			Scheme:     scheme,
			Chain:      chain,
		})
		servers[i] = &http.Server{Handler: signer}
		go func(srv *http.Server, l net.Listener) {
			_ = srv.Serve(l)
		}(servers[i], listeners[i])
	}
	defer func() {
		for _, srv := range servers {
			_ = srv.Close()
		}
	}()

	oracle := network.NewRPCOracle()
	defer oracle.Close()

	generator := core.NewGenerator(core.GeneratorOpts{
		Scheme: scheme,
		Oracle: oracle,
	})

	block := core.NewBlockFromPrevHeader(genesis.Header, []byte("block #1"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	logger.Info("touring the network", "nodes", registry.Len(), "difficulty", DIFFICULTY)
	start := time.Now()

	proof, err := generator.Generate(ctx, keys[0], block.PrevBlockHash, block.DataHash, DIFFICULTY, chain.Nodes())
	if err != nil {
		return err
	}
	block.Proof = proof

	logger.Info("proof generated", "hops", proof.Length(), "elapsed", time.Since(start))

	if err := chain.AddBlock(block); err != nil {
		return err
	}
	logger.Info("block accepted", "height", chain.Height())

	printProof(proof)
	return nil
}

// printProof dumps the proof signatures in tour order.
func printProof(proof *core.Proof) {
	for i, sig := range proof.Signatures {
		switch {
		case i == 0:
			fmt.Printf("s0  : %s\n", sig.String())
		case i%2 == 1:
			fmt.Printf("s%d  : %s\n", (i+1)/2, sig.String())
		default:
			fmt.Printf("s%d' : %s\n", i/2, sig.String())
		}
	}
}
