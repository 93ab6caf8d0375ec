package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"dagnode/internal/event"
)

// Key prefixes realizing the two logical keyspaces of spec §6 (events
// by hash, events by creator+height) plus flag tables and frames, all
// inside goleveldb's single flat keyspace.
const (
	prefixEventByHash = "ev:h:"
	prefixEventByCH   = "ev:ch:"
	prefixFlagTable   = "ft:"
	prefixFrame       = "fr:"
)

// LevelDBStore is the durable Store implementation, grounded on the
// teacher's LevelDBStorage (internal/storage/leveldb.go): same
// OpenFile/RecoverFile corruption-recovery path and write-buffer
// tuning, re-keyed for the event/flag-table/frame layout this
// engine needs.
type LevelDBStore struct {
	mu   sync.RWMutex
	db   *leveldb.DB
	path string
}

// NewLevelDBStore opens (or creates) a goleveldb database rooted at
// dataDir/nodeID, recovering from corruption the same way the
// teacher's storage layer does.
func NewLevelDBStore(nodeID, dataDir string) (*LevelDBStore, error) {
	path := filepath.Join(dataDir, nodeID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	options := &opt.Options{
		WriteBuffer: 4 * 1024 * 1024,
		BlockSize:   4 * 1024,
	}

	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		if errors.IsCorrupted(err) {
			db, err = leveldb.RecoverFile(path, options)
			if err != nil {
				return nil, fmt.Errorf("store: recover corrupted db: %w", err)
			}
		} else {
			return nil, fmt.Errorf("store: open db: %w", err)
		}
	}

	return &LevelDBStore{db: db, path: path}, nil
}

func eventByHashKey(hash string) []byte {
	return []byte(prefixEventByHash + hash)
}

func eventByCHKey(creator string, height uint64) []byte {
	return []byte(fmt.Sprintf("%s%s|%020d", prefixEventByCH, creator, height))
}

func flagTableKey(eventHash string) []byte {
	return []byte(prefixFlagTable + eventHash)
}

func frameKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixFrame, n))
}

func (s *LevelDBStore) Insert(e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hKey := eventByHashKey(e.Hash)
	if existing, err := s.db.Get(hKey, nil); err == nil {
		var prior event.Event
		if err := json.Unmarshal(existing, &prior); err != nil {
			return wrapCorrupt(err)
		}
		if prior.Hash == e.Hash {
			return nil // idempotent re-insert, spec §8 property 5
		}
		return ErrConflict
	} else if err != leveldb.ErrNotFound {
		return fmt.Errorf("store: read existing event: %w", err)
	}

	chKey := eventByCHKey(e.Creator, e.Height)
	if _, err := s.db.Get(chKey, nil); err == nil {
		return ErrConflict
	} else if err != leveldb.ErrNotFound {
		return fmt.Errorf("store: read existing event: %w", err)
	}

	buf, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store: encode event: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(hKey, buf)
	batch.Put(chKey, buf)
	if err := s.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("store: write event: %w", err)
	}
	return nil
}

func (s *LevelDBStore) GetByHash(hash string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(eventByHashKey(hash))
}

func (s *LevelDBStore) GetByCreatorHeight(creator string, height uint64) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(eventByCHKey(creator, height))
}

func (s *LevelDBStore) get(key []byte) (*event.Event, error) {
	buf, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read: %w", err)
	}
	var e event.Event
	if err := json.Unmarshal(buf, &e); err != nil {
		return nil, wrapCorrupt(err)
	}
	return &e, nil
}

func (s *LevelDBStore) SetFlagTable(eventHash string, table map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("store: encode flag table: %w", err)
	}
	if err := s.db.Put(flagTableKey(eventHash), buf, nil); err != nil {
		return fmt.Errorf("store: write flag table: %w", err)
	}
	return nil
}

func (s *LevelDBStore) GetFlagTable(eventHash string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, err := s.db.Get(flagTableKey(eventHash), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read flag table: %w", err)
	}
	var table map[string]string
	if err := json.Unmarshal(buf, &table); err != nil {
		return nil, wrapCorrupt(err)
	}
	return table, nil
}

func (s *LevelDBStore) GetFrame(n uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, err := s.db.Get(frameKey(n), nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: read frame: %w", err)
	}
	var hashes []string
	if err := json.Unmarshal(buf, &hashes); err != nil {
		return nil, wrapCorrupt(err)
	}
	return hashes, nil
}

func (s *LevelDBStore) SetFrame(n uint64, hashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("store: encode frame: %w", err)
	}
	if err := s.db.Put(frameKey(n), buf, nil); err != nil {
		return fmt.Errorf("store: write frame: %w", err)
	}
	return nil
}

func (s *LevelDBStore) GetEventsForGossip(gossipList GossipList) ([]event.NetEvent, error) {
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

func (s *LevelDBStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
