package cache

import (
	"context"
	"strconv"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps entries in a go-cache instance with expiration and the
// janitor disabled; validity is decided by ComputationCache on read.
type memoryStore struct {
	cache *gocache.Cache
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// memoryKey length-prefixes the node id so that no (node, fingerprint) pair
// can produce the key of another.
func memoryKey(nodeID, fingerprint string) string {
	return strconv.Itoa(len(nodeID)) + ":" + nodeID + fingerprint
}

func (m *memoryStore) load(_ context.Context, nodeID, fingerprint string) (Entry, bool, error) {
	v, found := m.cache.Get(memoryKey(nodeID, fingerprint))
	if !found {
		return Entry{}, false, nil
	}
	e, ok := v.(Entry)
	if !ok || e.NodeID != nodeID || e.Fingerprint != fingerprint {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (m *memoryStore) save(_ context.Context, e Entry) error {
	m.cache.Set(memoryKey(e.NodeID, e.Fingerprint), e, gocache.NoExpiration)
	return nil
}

func (m *memoryStore) deleteNode(_ context.Context, nodeID string) error {
	for key, item := range m.cache.Items() {
		if e, ok := item.Object.(Entry); ok && e.NodeID == nodeID {
			m.cache.Delete(key)
		}
	}
	return nil
}

func (m *memoryStore) clear(_ context.Context) error {
	m.cache.Flush()
	return nil
}

func (m *memoryStore) stats() (int, int64, error) {
	return m.cache.ItemCount(), 0, nil
}
