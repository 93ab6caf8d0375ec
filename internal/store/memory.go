package store

import (
	"fmt"
	"sync"

	"dagnode/internal/event"
)

// MemStore is an in-memory Store used by tests and the inspect CLI's
// dry-run mode. Grounded on the teacher's in-memory EventLog maps
// (internal/storage/vector_clock.go), restructured around the
// hash/(creator,height) keys this engine's Store contract needs.
type MemStore struct {
	mu         sync.RWMutex
	byHash     map[string]*event.Event
	byCreator  map[string]*event.Event // key: creator|height
	flagTables map[string]map[string]string
	frames     map[uint64][]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		byHash:     make(map[string]*event.Event),
		byCreator:  make(map[string]*event.Event),
		flagTables: make(map[string]map[string]string),
		frames:     make(map[uint64][]string),
	}
}

func creatorHeightKey(creator string, height uint64) string {
	return fmt.Sprintf("%s|%020d", creator, height)
}

func (s *MemStore) Insert(e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byHash[e.Hash]; ok {
		if prior.Hash == e.Hash {
			return nil
		}
		return ErrConflict
	}
	chKey := creatorHeightKey(e.Creator, e.Height)
	if _, ok := s.byCreator[chKey]; ok {
		return ErrConflict
	}

	cp := *e
	s.byHash[e.Hash] = &cp
	s.byCreator[chKey] = &cp
	return nil
}

func (s *MemStore) GetByHash(hash string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemStore) GetByCreatorHeight(creator string, height uint64) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byCreator[creatorHeightKey(creator, height)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemStore) SetFlagTable(eventHash string, table map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	s.flagTables[eventHash] = cp
	return nil
}

func (s *MemStore) GetFlagTable(eventHash string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.flagTables[eventHash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make(map[string]string, len(table))
	for k, v := range table {
		cp[k] = v
	}
	return cp, nil
}

func (s *MemStore) GetFrame(n uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes, ok := s.frames[n]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]string, len(hashes))
	copy(out, hashes)
	return out, nil
}

func (s *MemStore) SetFrame(n uint64, hashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(hashes))
	copy(cp, hashes)
	s.frames[n] = cp
	return nil
}

func (s *MemStore) GetEventsForGossip(gossipList GossipList) ([]event.NetEvent, error) {
	var out []event.NetEvent
	for _, entry := range gossipList {
		h := entry.Height + 1
		for {
			e, err := s.GetByCreatorHeight(entry.PeerID, h)
			if err == ErrNotFound {
				break
			}
			if err != nil {
				return nil, err
			}
			out = append(out, e.ToNetEvent())
			h++
		}
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }
