package peer

import (
	"fmt"
	"sync"

	"dagnode/internal/store"
)

// ErrUnknownPeer is returned by Find, WithPeer and
// FindWithLamportUpdate when the id is not a member of the registry.
var ErrUnknownPeer = fmt.Errorf("peer: unknown peer id")

// Registry is the peer registry (C2), independently locked from the
// DAG core state per the §9 REDESIGN FLAG split.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byID   map[string]*Peer
	cursor int
}

// NewRegistry builds a registry from an ordered peer list. Order is
// preserved for round-robin determinism (spec §4.2 ordering
// guarantee).
func NewRegistry(peers []*Peer) *Registry {
	r := &Registry{
		order: make([]string, 0, len(peers)),
		byID:  make(map[string]*Peer, len(peers)),
	}
	for _, p := range peers {
		r.order = append(r.order, p.ID)
		r.byID[p.ID] = p
	}
	return r
}

// NextPeer returns the next peer in round-robin order, advancing the
// cursor. It cycles through every peer before repeating.
func (r *Registry) NextPeer() (*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil, fmt.Errorf("peer: registry is empty")
	}
	id := r.order[r.cursor%len(r.order)]
	r.cursor = (r.cursor + 1) % len(r.order)
	return r.byID[id], nil
}

// GetGossipList takes an atomic snapshot of {height, lamport_time}
// for every peer, in registry insertion order.
func (r *Registry) GetGossipList() store.GossipList {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make(store.GossipList, 0, len(r.order))
	for _, id := range r.order {
		p := r.byID[id]
		list = append(list, store.GossipEntry{
			PeerID:      id,
			Height:      p.LastKnownHeight,
			LamportTime: p.LastKnownLamport,
		})
	}
	return list
}

// Find returns a copy of the peer record by id.
func (r *Registry) Find(id string) (Peer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Peer{}, fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}
	return *p, nil
}

// WithPeer runs fn with exclusive mutable access to the peer record
// identified by id (the registry's analogue of find_mut: the critical
// section is the caller-supplied fn, kept as short as possible).
func (r *Registry) WithPeer(id string, fn func(p *Peer)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}
	fn(p)
	return nil
}

// FindWithLamportUpdate advances the peer's known Lamport time to
// max(current, lt) and returns the (updated) record.
func (r *Registry) FindWithLamportUpdate(id string, lt uint64) (Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Peer{}, fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}
	p.RaiseLamport(lt)
	return *p, nil
}

// All returns a copy of every peer record, in registry order.
func (r *Registry) All() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}
