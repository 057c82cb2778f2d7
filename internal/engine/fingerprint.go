package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/pkg/types"
)

// fingerprint derives the cache key version of a node from its identity, the
// optional caller fingerprint and the results of its dependencies. Every field
// is length-prefixed so adjacent fields cannot run together.
//
// Dependency results are hashed in the shape they take after a round trip
// through JSON, so a value decoded from the disk tier hashes the same as the
// value that was stored.
func fingerprint(n *graph.Node, in types.Inputs) string {
	h := sha256.New()

	writeField(h, "node", n.ID())
	if fn := n.Fingerprint(); fn != nil {
		writeField(h, "caller", fn(in))
	}
	for _, dep := range n.Dependencies() {
		writeField(h, "dep", dep)
		writeField(h, "value", canonical(in[dep]))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return string(data)
	}
	if again, err := json.Marshal(decoded); err == nil {
		return string(again)
	}
	return string(data)
}

func writeField(h hash.Hash, tag, value string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(value)))
	h.Write([]byte(tag))
	h.Write(n[:])
	h.Write([]byte(value))
}
