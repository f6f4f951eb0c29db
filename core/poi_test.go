package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambula-labs/ambula/crypto"
)

// testNetwork is a set of nodes whose private keys are held in-process.
type testNetwork struct {
	nodes []Node
	keys  map[string]crypto.PrivateKey
}

func newTestNetwork(t *testing.T, n int) *testNetwork {
	net := &testNetwork{
		nodes: make([]Node, n),
		keys:  make(map[string]crypto.PrivateKey, n),
	}

	for i := 0; i < n; i++ {
		key, err := crypto.GeneratePrivateKey()
		require.NoError(t, err)

		pubKey := key.PublicKey()
		net.nodes[i] = Node{
			Name:   fmt.Sprintf("node-%d", i),
			Addr:   fmt.Sprintf("http://127.0.0.1:%d", 9000+i),
			PubKey: pubKey,
		}
		net.keys[string(pubKey)] = key
	}

	return net
}

// localOracle signs challenges in-process with the network's keys.
type localOracle struct {
	scheme SignatureScheme
	net    *testNetwork
}

func (o *localOracle) RequestSignature(ctx context.Context, node Node, payload []byte) (crypto.Signature, error) {
	key, ok := o.net.keys[string(node.PubKey)]
	if !ok {
		return nil, fmt.Errorf("unknown node %s", node.PubKey.String())
	}
	return o.scheme.Sign(key, payload)
}

// failingOracle always errors, counting the attempts it received.
type failingOracle struct {
	calls int
}

func (o *failingOracle) RequestSignature(ctx context.Context, node Node, payload []byte) (crypto.Signature, error) {
	o.calls++
	return nil, errors.New("connection refused")
}

// flakyOracle fails every odd-numbered call, then delegates.
type flakyOracle struct {
	inner SignatureOracle
	calls int
}

func (o *flakyOracle) RequestSignature(ctx context.Context, node Node, payload []byte) (crypto.Signature, error) {
	o.calls++
	if o.calls%2 == 1 {
		return nil, errors.New("connection reset")
	}
	return o.inner.RequestSignature(ctx, node, payload)
}

// blockingOracle never answers before the context is cancelled.
type blockingOracle struct{}

func (blockingOracle) RequestSignature(ctx context.Context, node Node, payload []byte) (crypto.Signature, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func hashFromUint(v uint64) crypto.Hash {
	return crypto.Sum(u64be(v))
}

func testGenerator(net *testNetwork) *Generator {
	return NewGenerator(GeneratorOpts{
		Scheme: Secp256k1Scheme{},
		Oracle: &localOracle{scheme: Secp256k1Scheme{}, net: net},
	})
}

func generateTestProof(t *testing.T, net *testNetwork, initiator crypto.PrivateKey) *Proof {
	proof, err := testGenerator(net).Generate(
		context.Background(), initiator, hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	require.NoError(t, err)
	require.NotNil(t, proof)
	return proof
}

func TestGenerateAndCheckPoI(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	// Structural law: the proof has exactly the 2L+1 signatures its seed
	// commits to.
	length := TourLength(SeedFromSignature(proof.Seed()), 20.0, len(net.nodes))
	assert.Equal(t, int(2*length+1), len(proof.Signatures))
	assert.Equal(t, int(length), proof.Length())

	verifier := NewVerifier(Secp256k1Scheme{})
	assert.NoError(t, verifier.Check(proof, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes))
}

func TestCheckPoITamperedSignature(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)
	verifier := NewVerifier(Secp256k1Scheme{})

	// Flipping a single bit of any signature must invalidate the proof.
	for _, idx := range []int{0, 1, 2, 3, len(proof.Signatures) - 1} {
		tampered := &Proof{Signatures: make([]crypto.Signature, len(proof.Signatures))}
		for i, sig := range proof.Signatures {
			cp := make(crypto.Signature, len(sig))
			copy(cp, sig)
			tampered.Signatures[i] = cp
		}
		tampered.Signatures[idx][0] ^= 0x01

		err := verifier.Check(tampered, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
		assert.Error(t, err, "bit flip in signature %d accepted", idx)
	}
}

func TestCheckPoITruncated(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)
	truncated := &Proof{Signatures: proof.Signatures[:len(proof.Signatures)-1]}

	err = NewVerifier(Secp256k1Scheme{}).Check(
		truncated, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidProofStructure)
}

func TestCheckPoIRandomSignatures(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	scheme := Secp256k1Scheme{}
	s0, err := scheme.Sign(initiator, hashFromUint(54321).Bytes())
	require.NoError(t, err)

	// Correct shape, garbage tour signatures.
	length := TourLength(SeedFromSignature(s0), 20.0, len(net.nodes))
	sigs := make([]crypto.Signature, 0, 2*length+1)
	sigs = append(sigs, s0)
	for i := uint64(0); i < length; i++ {
		sigs = append(sigs, testSignature(byte(i)), testSignature(byte(i+100)))
	}

	err = NewVerifier(scheme).Check(
		&Proof{Signatures: sigs}, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckPoIWrongInitiator(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	other, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	err = NewVerifier(Secp256k1Scheme{}).Check(
		proof, other.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckPoIWrongDependency(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	err = NewVerifier(Secp256k1Scheme{}).Check(
		proof, initiator.PublicKey(), hashFromUint(11111), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckPoIWrongMessage(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	err = NewVerifier(Secp256k1Scheme{}).Check(
		proof, initiator.PublicKey(), hashFromUint(54321), hashFromUint(998), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCheckPoIEmptyAndEvenProofs(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	verifier := NewVerifier(Secp256k1Scheme{})

	err = verifier.Check(nil, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidProofStructure)

	err = verifier.Check(&Proof{}, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidProofStructure)

	even := &Proof{Signatures: []crypto.Signature{testSignature(0x1), testSignature(0x2)}}
	err = verifier.Check(even, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrInvalidProofStructure)
}

func TestCheckPoIDegenerateNetwork(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	err = NewVerifier(Secp256k1Scheme{}).Check(
		proof, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes[:1])
	assert.ErrorIs(t, err, ErrDegenerateNetwork)
}

func TestGenerateDegenerateNetwork(t *testing.T) {
	net := newTestNetwork(t, 1)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	_, err = testGenerator(net).Generate(
		context.Background(), initiator, hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.ErrorIs(t, err, ErrDegenerateNetwork)
}

func TestGenerateOracleUnavailable(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	oracle := &failingOracle{}
	generator := NewGenerator(GeneratorOpts{
		Scheme:      Secp256k1Scheme{},
		Oracle:      oracle,
		MaxAttempts: 2,
	})

	proof, err := generator.Generate(
		context.Background(), initiator, hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.Nil(t, proof)
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	assert.Equal(t, 2, oracle.calls)
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	oracle := &flakyOracle{inner: &localOracle{scheme: Secp256k1Scheme{}, net: net}}
	generator := NewGenerator(GeneratorOpts{
		Scheme: Secp256k1Scheme{},
		Oracle: oracle,
	})

	proof, err := generator.Generate(
		context.Background(), initiator, hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	require.NoError(t, err)

	assert.NoError(t, NewVerifier(Secp256k1Scheme{}).Check(
		proof, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes))
}

func TestGenerateCancellation(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	generator := NewGenerator(GeneratorOpts{
		Scheme: Secp256k1Scheme{},
		Oracle: blockingOracle{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	proof, err := generator.Generate(ctx, initiator, hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.Nil(t, proof)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeedBindsProof(t *testing.T) {
	net := newTestNetwork(t, 10)
	initiator, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	proof := generateTestProof(t, net, initiator)

	// Mutating the seed signature breaks the committee trace even if the
	// rest of the proof is untouched.
	mutated := &Proof{Signatures: append([]crypto.Signature{}, proof.Signatures...)}
	seed := make(crypto.Signature, len(proof.Seed()))
	copy(seed, proof.Seed())
	seed[10] ^= 0x80
	mutated.Signatures[0] = seed

	err = NewVerifier(Secp256k1Scheme{}).Check(
		mutated, initiator.PublicKey(), hashFromUint(54321), hashFromUint(999), 20.0, net.nodes)
	assert.Error(t, err)
}
