package core

import (
	"context"
	"fmt"
	"time"

	"github.com/ambula-labs/ambula/crypto"
	"github.com/ambula-labs/ambula/random"
)

const (
	// DEFAULT_REQUEST_TIMEOUT bounds a single oracle call.
	DEFAULT_REQUEST_TIMEOUT = 5 * time.Second

	// DEFAULT_MAX_ATTEMPTS is the number of oracle calls made per hop,
	// the first try included, before giving up.
	DEFAULT_MAX_ATTEMPTS = 3

	// RETRY_JITTER_MS is the maximum backoff in milliseconds between two
	// attempts on the same hop.
	RETRY_JITTER_MS = 200
)

// GeneratorOpts encapsulates the options needed by the Generator.
type GeneratorOpts struct {
	Scheme         SignatureScheme
	Oracle         SignatureOracle
	RequestTimeout time.Duration // per oracle call, DEFAULT_REQUEST_TIMEOUT if unset
	MaxAttempts    int           // per hop, DEFAULT_MAX_ATTEMPTS if unset
}

// A Generator drives the interactive side of the protocol: it walks the
// committee hop by hop, obtaining one peer signature per hop through the
// SignatureOracle and counter-signing it with the initiator's key.
type Generator struct {
	GeneratorOpts
}

// NewGenerator instantiates a Generator from a GeneratorOpts.
func NewGenerator(opts GeneratorOpts) *Generator {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = DEFAULT_REQUEST_TIMEOUT
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DEFAULT_MAX_ATTEMPTS
	}

	return &Generator{
		GeneratorOpts: opts,
	}
}

// Generate produces a Proof-of-Interaction binding (dependency, message)
// to the initiator. Hops are strictly sequential: the signer of hop k+1
// is only known once hop k's counter-signature exists. On cancellation or
// an exhausted retry budget no partial proof is returned.
func (g *Generator) Generate(
	ctx context.Context,
	initiator crypto.PrivateKey,
	dependency crypto.Hash,
	message crypto.Hash,
	difficulty float64,
	nodes []Node,
) (*Proof, error) {
	s0, err := g.Scheme.Sign(initiator, dependency.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to sign dependency: %w", err)
	}

	seed := SeedFromSignature(s0)
	committee, err := SelectCommittee(seed, nodes)
	if err != nil {
		return nil, err
	}
	length := TourLength(seed, difficulty, len(nodes))

	sigs := make([]crypto.Signature, 0, 2*length+1)
	sigs = append(sigs, s0)

	walker := newTourWalker(s0, dependency, message)
	for k := uint64(0); k < length; k++ {
		peer := committee[walker.hopIndex(len(committee))]

		peerSig, err := g.requestSignature(ctx, peer, walker.challenge())
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", k, err)
		}

		counterSig, err := g.Scheme.Sign(initiator, peerSig)
		if err != nil {
			return nil, fmt.Errorf("hop %d: failed to counter-sign: %w", k, err)
		}

		sigs = append(sigs, peerSig, counterSig)
		walker.advance(counterSig)
	}

	return &Proof{Signatures: sigs}, nil
}

// requestSignature asks the oracle for a signature over payload, retrying
// transport failures and malformed responses within the per-hop budget.
func (g *Generator) requestSignature(ctx context.Context, peer Node, payload []byte) (crypto.Signature, error) {
	var lastErr error

	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := g.backoff(ctx); err != nil {
				return nil, err
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, g.RequestTimeout)
		sig, err := g.Oracle.RequestSignature(reqCtx, peer, payload)
		cancel()

		if err == nil && len(sig) != g.Scheme.SignatureSize() {
			err = crypto.ErrMalformedSignature
		}
		if err == nil {
			return sig, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: node %s: %v", ErrOracleUnavailable, peer.Addr, lastErr)
}

// backoff sleeps for a random jitter before a retry, aborting early if
// the generation is cancelled.
func (g *Generator) backoff(ctx context.Context) error {
	jitter, err := random.RandomInt(RETRY_JITTER_MS)
	if err != nil {
		jitter = RETRY_JITTER_MS / 2
	}

	select {
	case <-time.After(time.Duration(jitter) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
