// Copyright 2025 Grug Framework
//
// State commitment schemes. A scheme turns the batch committed at each
// version into a fixed-length root hash:
//
//  1. For consensus: two nodes with the same root are sure they hold the
//     same state without comparing the state itself.
//  2. For light clients: a scheme may prove that a key/value pair exists or
//     does not exist under a given root.

package commitment

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

// ErrProofUnsupported is returned by schemes that cannot generate proofs.
var ErrProofUnsupported = errors.New("commitment scheme does not support proofs")

// Scheme is the commitment engine contract. Implementations must be
// deterministic, depend only on the batch (and their own stored state), and
// never revisit a finalized version.
type Scheme interface {
	// RootHash returns the root at the given version, or ok = false if that
	// version is unknown.
	RootHash(storage store.Storage, version uint64) (types.Hash, bool, error)

	// Apply ingests the batch for newVersion, writing whatever the scheme
	// needs into storage, and returns the new root.
	Apply(storage store.Storage, oldVersion, newVersion uint64, batch types.Batch) (types.Hash, error)

	// Prove produces a membership or non-membership proof for keyHash at
	// version, if the scheme supports proofs.
	Prove(storage store.Storage, keyHash types.Hash, version uint64) ([]byte, error)

	// Prune releases data of versions below upToVersion.
	Prune(storage store.Storage, upToVersion uint64) error
}

// keyLatest stores the (version, root) pair of the most recent apply.
var keyLatest = []byte("latest")

type latestRecord struct {
	Version uint64     `json:"version"`
	Root    types.Hash `json:"root"`
}

// Simple is the simplest possible scheme: the root is the SHA-256 of a
// canonical length-prefixed encoding of the sorted batch entries. No proofs.
type Simple struct{}

func NewSimple() Simple {
	return Simple{}
}

func (Simple) RootHash(storage store.Storage, version uint64) (types.Hash, bool, error) {
	raw, err := storage.Read(keyLatest)
	if err != nil {
		return types.Hash{}, false, err
	}
	if raw == nil {
		return types.Hash{}, false, nil
	}
	var rec latestRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.Hash{}, false, fmt.Errorf("%w: %v", types.ErrCommitment, err)
	}
	if rec.Version != version {
		return types.Hash{}, false, nil
	}
	return rec.Root, true, nil
}

func (Simple) Apply(storage store.Storage, oldVersion, newVersion uint64, batch types.Batch) (types.Hash, error) {
	if newVersion != 0 && newVersion <= oldVersion {
		return types.Hash{}, fmt.Errorf("%w: version is not incremental (old %d, new %d)", types.ErrCommitment, oldVersion, newVersion)
	}

	root := HashBatch(batch)

	raw, err := json.Marshal(latestRecord{Version: newVersion, Root: root})
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", types.ErrCommitment, err)
	}
	if err := storage.Write(keyLatest, raw); err != nil {
		return types.Hash{}, err
	}
	return root, nil
}

func (Simple) Prove(store.Storage, types.Hash, uint64) ([]byte, error) {
	return nil, ErrProofUnsupported
}

func (Simple) Prune(store.Storage, uint64) error {
	return nil
}

// HashBatch computes the canonical digest of a batch: for each entry in
// ascending key order, a u16 big-endian key length, the key, then either
// 0x01 + u16 length + value for an insert, or 0x00 for a delete.
func HashBatch(batch types.Batch) types.Hash {
	h := sha256.New()
	var lenBuf [2]byte
	for _, k := range batch.SortedKeys() {
		op := batch[k]
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(k)))
		h.Write(lenBuf[:])
		h.Write([]byte(k))
		if op.Delete {
			h.Write([]byte{0x00})
		} else {
			h.Write([]byte{0x01})
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(op.Value)))
			h.Write(lenBuf[:])
			h.Write(op.Value)
		}
	}
	var root types.Hash
	copy(root[:], h.Sum(nil))
	return root
}
