// Package store persists events and flag tables, hash-indexed and
// (creator, height)-indexed, and answers the incremental gossip query.
package store

import (
	"errors"
	"fmt"

	"dagnode/internal/event"
)

// ErrNotFound is returned when a lookup has no value. Callers in the
// gossip height-walk treat this as the expected loop termination, not
// a failure.
var ErrNotFound = errors.New("store: not found")

// ErrCorrupt wraps a decode failure on a stored value.
var ErrCorrupt = errors.New("store: corrupt record")

// ErrConflict is returned by Insert when the (hash) or (creator,
// height) key already holds a different event.
var ErrConflict = errors.New("store: conflicting insert")

func wrapCorrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorrupt, err)
}

// Store is the persistence contract used by the core. Two concrete
// implementations are provided: LevelDBStore (durable) and MemStore
// (in-memory, for tests).
type Store interface {
	// Insert writes an event into both the hash index and the
	// (creator, height) index. It fails with ErrConflict if either
	// key already holds a different event.
	Insert(e *event.Event) error

	GetByHash(hash string) (*event.Event, error)
	GetByCreatorHeight(creator string, height uint64) (*event.Event, error)

	SetFlagTable(eventHash string, table map[string]string) error
	GetFlagTable(eventHash string) (map[string]string, error)

	// GetFrame returns the ordered event hashes assigned to frame n
	// by the external finality layer.
	GetFrame(n uint64) ([]string, error)
	// SetFrame records the event hashes for frame n. The core itself
	// never computes frame assignment; this is the write path used by
	// the external finality layer (or, in tests, seeded directly).
	SetFrame(n uint64, hashes []string) error

	// GetEventsForGossip implements the height-walk query of the
	// §4.1 algorithm: for each peer in gossipList (in order), walk
	// ascending heights starting at known.Height+1 until the first
	// not-found, and return the NetEvents found, in (outer peer
	// order, inner ascending height) order.
	GetEventsForGossip(gossipList GossipList) ([]event.NetEvent, error)

	Close() error
}

// GossipEntry is one peer's contribution to a GossipList snapshot
// ({height, lamport_time} as described in spec §3).
type GossipEntry struct {
	PeerID      string
	Height      uint64
	LamportTime uint64
}

// GossipList is an ordered snapshot of per-peer knowledge, produced
// atomically from the peer registry. Order is preserved (not a map)
// because the gossip query's output order depends on it.
type GossipList []GossipEntry
