package tcp

import (
	"bytes"
	"encoding/gob"

	"github.com/syndtr/goleveldb/leveldb"
)

// knownPeersStore is the persistence boundary KnownPeers writes
// through to when Config.KnownPeersStorePath is set. It exists so
// KnownPeers itself never imports leveldb directly, keeping the
// in-memory-only path (the spec's default) free of any store
// concerns.
type knownPeersStore interface {
	put(key string, ps PeerStats) error
	delete(key string) error
	loadAll() (map[string]PeerStats, error)
	close() error
}

// levelDBKnownPeersStore backs KnownPeers with a leveldb database,
// the way database/db.go backs chain state: one Put/Get/Delete per
// row, keyed directly by the peer address string.
type levelDBKnownPeersStore struct {
	db *leveldb.DB
}

// openKnownPeersStore opens (creating if absent) the leveldb database
// at path.
func openKnownPeersStore(path string) (*levelDBKnownPeersStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &levelDBKnownPeersStore{db: db}, nil
}

func (s *levelDBKnownPeersStore) put(key string, ps PeerStats) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ps); err != nil {
		return err
	}
	return s.db.Put([]byte(key), buf.Bytes(), nil)
}

func (s *levelDBKnownPeersStore) delete(key string) error {
	return s.db.Delete([]byte(key), nil)
}

func (s *levelDBKnownPeersStore) loadAll() (map[string]PeerStats, error) {
	out := make(map[string]PeerStats)
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	for iter.Next() {
		var ps PeerStats
		if err := gob.NewDecoder(bytes.NewReader(iter.Value())).Decode(&ps); err != nil {
			return nil, err
		}
		out[string(iter.Key())] = ps
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *levelDBKnownPeersStore) close() error {
	return s.db.Close()
}
