package core

// MAX_COMMITTEE_SIZE is the upper bound on the committee size.
const MAX_COMMITTEE_SIZE = 20

// CommitteeSize returns the committee size for a network of networkSize
// nodes: min(MAX_COMMITTEE_SIZE, networkSize/2).
func CommitteeSize(networkSize int) int {
	size := networkSize / 2
	if size > MAX_COMMITTEE_SIZE {
		size = MAX_COMMITTEE_SIZE
	}
	return size
}

// SelectCommittee draws the committee S from the node set using a PRNG
// seeded with seed. Draws are rejection-sampled: a draw that lands on an
// already-selected public key is discarded but still consumes PRNG
// output, so generator and verifier replay the exact same stream.
// Insertion order is part of the protocol and is preserved.
func SelectCommittee(seed uint64, nodes []Node) ([]Node, error) {
	target := CommitteeSize(len(nodes))
	if len(nodes) < 2 || target == 0 {
		return nil, ErrDegenerateNetwork
	}

	rng := newRand(seed)
	committee := make([]Node, 0, target)
	selected := make(map[string]struct{}, target)

	// Terminates because target <= len(nodes)/2: every draw has
	// probability >= 1/2 of hitting a fresh node.
	for len(committee) < target {
		i := rng.Uint64() % uint64(len(nodes))
		node := nodes[i]
		if _, dup := selected[string(node.PubKey)]; dup {
			continue
		}
		selected[string(node.PubKey)] = struct{}{}
		committee = append(committee, node)
	}

	return committee, nil
}
