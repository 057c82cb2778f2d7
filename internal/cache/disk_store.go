package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/avi3tal/lazyflow/internal/fsutil"
)

const recordExt = ".json"

// diskRecord is the persisted form of an Entry.
//
// Layout:
//
//	{dir}/
//	  {sha256(node_id)[0:16]}/
//	    {sha256(fingerprint)}.json
type diskRecord struct {
	NodeID      string          `json:"node_id"`
	Fingerprint string          `json:"fingerprint"`
	Value       json.RawMessage `json:"value"`
	StoredAt    time.Time       `json:"stored_at"`
	TTL         float64         `json:"ttl"` // seconds
}

type diskStore struct {
	dir string
}

func newDiskStore(dir string) *diskStore {
	return &diskStore{dir: dir}
}

func (d *diskStore) nodeDir(nodeID string) string {
	sum := sha256.Sum256([]byte(nodeID))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])[:16])
}

func (d *diskStore) entryPath(nodeID, fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return filepath.Join(d.nodeDir(nodeID), hex.EncodeToString(sum[:])+recordExt)
}

func (d *diskStore) load(_ context.Context, nodeID, fingerprint string) (Entry, bool, error) {
	path := d.entryPath(nodeID, fingerprint)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, errors.Wrapf(err, "reading cache entry %s", path)
	}

	var rec diskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, false, errors.Wrapf(err, "parsing cache entry %s", path)
	}
	// Hash prefixes may collide; the record carries the full key.
	if rec.NodeID != nodeID || rec.Fingerprint != fingerprint {
		return Entry{}, false, nil
	}

	var value any
	if err := json.Unmarshal(rec.Value, &value); err != nil {
		return Entry{}, false, errors.Wrapf(err, "decoding cached value %s", path)
	}

	return Entry{
		NodeID:      rec.NodeID,
		Fingerprint: rec.Fingerprint,
		Value:       value,
		StoredAt:    rec.StoredAt,
		TTL:         time.Duration(rec.TTL * float64(time.Second)),
	}, true, nil
}

func (d *diskStore) save(_ context.Context, e Entry) error {
	value, err := json.Marshal(e.Value)
	if err != nil {
		return errors.Wrapf(err, "encoding value of node '%s'", e.NodeID)
	}

	data, err := json.MarshalIndent(diskRecord{
		NodeID:      e.NodeID,
		Fingerprint: e.Fingerprint,
		Value:       value,
		StoredAt:    e.StoredAt.UTC(),
		TTL:         e.TTL.Seconds(),
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding cache record")
	}

	path := d.entryPath(e.NodeID, e.Fingerprint)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing cache entry %s", path)
	}
	return nil
}

func (d *diskStore) deleteNode(_ context.Context, nodeID string) error {
	if err := os.RemoveAll(d.nodeDir(nodeID)); err != nil {
		return errors.Wrapf(err, "removing cache entries of node '%s'", nodeID)
	}
	return nil
}

func (d *diskStore) clear(_ context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "listing cache dir %s", d.dir)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(d.dir, entry.Name())); err != nil {
			return errors.Wrapf(err, "removing %s", entry.Name())
		}
	}
	return nil
}

func (d *diskStore) stats() (int, int64, error) {
	files, err := fsutil.FindFilesByExtension(d.dir, recordExt)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "scanning cache dir %s", d.dir)
	}

	var size int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		size += info.Size()
	}
	return len(files), size, nil
}
