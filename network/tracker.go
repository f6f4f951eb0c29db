package network

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ambula-labs/ambula/crypto"
)

var (
	ErrDoubleTouringDetected = errors.New("double-touring attempt detected")
)

// A MessageTracker records which (dependency, message) pairs each
// requester toured for. A requester asking for signatures over two
// different messages with the same dependency is running two tours off
// one seed, which the protocol forbids.
type MessageTracker struct {
	mu       sync.Mutex
	received map[string]map[crypto.Hash]crypto.Hash // requester -> dependency -> message
}

// NewMessageTracker creates an empty MessageTracker.
func NewMessageTracker() *MessageTracker {
	return &MessageTracker{
		received: make(map[string]map[crypto.Hash]crypto.Hash),
	}
}

// CheckAndRecord validates that the requester is not double-touring and
// records the (dependency, message) pair. Repeating the same pair is
// fine, retries do that.
func (t *MessageTracker) CheckAndRecord(requester string, dependency, message crypto.Hash) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	deps := t.received[requester]
	if deps == nil {
		deps = make(map[crypto.Hash]crypto.Hash)
		t.received[requester] = deps
	}

	if existing, ok := deps[dependency]; ok {
		if existing != message {
			return fmt.Errorf("%w: requester %s asked for messages %s and %s with dependency %s",
				ErrDoubleTouringDetected,
				requester,
				existing.String()[:8],
				message.String()[:8],
				dependency.String()[:8])
		}
		return nil
	}

	deps[dependency] = message
	return nil
}

// Clear removes every record for a given dependency, for all requesters.
// The tracker never clears records on its own; the host reaches it
// through Signer.Tracker.
func (t *MessageTracker) Clear(dependency crypto.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, deps := range t.received {
		delete(deps, dependency)
	}
}
