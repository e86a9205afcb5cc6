// Copyright 2025 Grug Framework
//
// The versioned state store, layered over a CometBFT database backend.
//
// Physical layout (single dbm.DB, single-byte column prefixes):
//
//	"s latest_version"      -> u64 LE        (default column: metadata)
//	"s oldest_version"      -> u64 LE
//	'c' + node id           -> node          (state commitment column)
//	'l' + user key          -> value         (latest state, fast path)
//	'h' + esc(key) + 0x00 + u64 BE version -> record (state history)
//
// History keys escape 0x00 bytes in the user key as 0x00 0xff, so the
// version suffix is unambiguous and records of one key sort contiguously in
// version order. History record values are 0x00 for a tombstone, or 0x01
// followed by the value.

package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/grugnet/grug/pkg/types"
)

var (
	prefixDefault    = []byte{'s'}
	prefixCommitment = []byte{'c'}
	prefixLatest     = []byte{'l'}
	prefixHistory    = []byte{'h'}

	keyLatestVersion = []byte("s latest_version")
	keyOldestVersion = []byte("s oldest_version")
)

const (
	histTombstone = 0x00
	histValue     = 0x01
)

// DiskStore is the committed chain state: a versioned ordered key/value map
// with historical reads and batched atomic applies.
//
// Single-writer: Apply is called from the consensus commit path only. Reads
// may come from query goroutines; the underlying dbm.DB handles that.
type DiskStore struct {
	db     dbm.DB
	logger *log.Logger
}

func NewDiskStore(db dbm.DB, logger *log.Logger) *DiskStore {
	if logger == nil {
		logger = log.New(log.Writer(), "[DiskStore] ", log.LstdFlags)
	}
	return &DiskStore{db: db, logger: logger}
}

// LatestVersion returns the most recently committed version, or ok = false
// if the store is empty (pre-genesis).
func (s *DiskStore) LatestVersion() (uint64, bool, error) {
	raw, err := s.db.Get(keyLatestVersion)
	if err != nil {
		return 0, false, err
	}
	if raw == nil {
		return 0, false, nil
	}
	return binary.LittleEndian.Uint64(raw), true, nil
}

// OldestVersion returns the oldest retained version.
func (s *DiskStore) OldestVersion() (uint64, error) {
	raw, err := s.db.Get(keyOldestVersion)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// StateView returns a read-only Storage over the state at the given
// version; nil means latest. Writes through a view fail.
func (s *DiskStore) StateView(version *uint64) Storage {
	if version == nil {
		return &latestView{store: s}
	}
	return &historicalView{store: s, version: *version}
}

// CommitmentView returns a read-only Storage over the commitment column,
// for serving proofs.
func (s *DiskStore) CommitmentView() Storage {
	return &commitView{store: s}
}

// Apply atomically persists a batch at newVersion, together with the
// commitment writes produced by the commitment engine and the new latest
// version pointer. A failure mid-apply leaves the store at oldVersion.
func (s *DiskStore) Apply(oldVersion, newVersion uint64, batch types.Batch, commitmentWrites types.Batch) error {
	latest, ok, err := s.LatestVersion()
	if err != nil {
		return err
	}
	if ok && latest != oldVersion {
		return fmt.Errorf("%w: store is at version %d, apply expects %d", types.ErrCommitment, latest, oldVersion)
	}
	if newVersion != oldVersion+1 && !(newVersion == 0 && !ok) {
		return fmt.Errorf("%w: version must advance by exactly 1 (old %d, new %d)", types.ErrCommitment, oldVersion, newVersion)
	}

	physical := s.db.NewBatch()
	defer physical.Close()

	for _, k := range batch.SortedKeys() {
		op := batch[k]
		key := []byte(k)
		if op.Delete {
			if err := physical.Delete(Concat(prefixLatest, key)); err != nil {
				return fmt.Errorf("%w: %v", types.ErrCommitment, err)
			}
			if err := physical.Set(histKey(key, newVersion), []byte{histTombstone}); err != nil {
				return fmt.Errorf("%w: %v", types.ErrCommitment, err)
			}
		} else {
			if err := physical.Set(Concat(prefixLatest, key), op.Value); err != nil {
				return fmt.Errorf("%w: %v", types.ErrCommitment, err)
			}
			record := make([]byte, 1+len(op.Value))
			record[0] = histValue
			copy(record[1:], op.Value)
			if err := physical.Set(histKey(key, newVersion), record); err != nil {
				return fmt.Errorf("%w: %v", types.ErrCommitment, err)
			}
		}
	}

	for _, k := range commitmentWrites.SortedKeys() {
		op := commitmentWrites[k]
		key := Concat(prefixCommitment, []byte(k))
		if op.Delete {
			if err := physical.Delete(key); err != nil {
				return fmt.Errorf("%w: %v", types.ErrCommitment, err)
			}
		} else if err := physical.Set(key, op.Value); err != nil {
			return fmt.Errorf("%w: %v", types.ErrCommitment, err)
		}
	}

	versionRaw := make([]byte, 8)
	binary.LittleEndian.PutUint64(versionRaw, newVersion)
	if err := physical.Set(keyLatestVersion, versionRaw); err != nil {
		return fmt.Errorf("%w: %v", types.ErrCommitment, err)
	}

	if err := physical.WriteSync(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrCommitment, err)
	}
	return nil
}

// Prune drops history records of versions strictly below upToVersion,
// keeping for each key its newest record below upToVersion (even when the
// key also has a record at upToVersion), so historical reads at upToVersion
// still resolve.
func (s *DiskStore) Prune(upToVersion uint64) error {
	it, err := s.db.Iterator(prefixHistory, IncrementLastByte(prefixHistory))
	if err != nil {
		return err
	}
	defer it.Close()

	var (
		toDelete [][]byte
		lastKey  []byte
		lastPhys []byte
	)
	for ; it.Valid(); it.Next() {
		phys := bytes.Clone(it.Key())
		userKey, version, err := parseHistKey(phys)
		if err != nil {
			return err
		}
		if version >= upToVersion {
			lastKey, lastPhys = nil, nil
			continue
		}
		// A newer record of the same key below upToVersion supersedes the
		// previous one; that previous record can go.
		if lastPhys != nil && bytes.Equal(lastKey, userKey) {
			toDelete = append(toDelete, lastPhys)
		}
		lastKey, lastPhys = userKey, phys
	}
	if err := it.Error(); err != nil {
		return err
	}

	physical := s.db.NewBatch()
	defer physical.Close()
	for _, k := range toDelete {
		if err := physical.Delete(k); err != nil {
			return err
		}
	}
	versionRaw := make([]byte, 8)
	binary.LittleEndian.PutUint64(versionRaw, upToVersion)
	if err := physical.Set(keyOldestVersion, versionRaw); err != nil {
		return err
	}
	if err := physical.WriteSync(); err != nil {
		return err
	}
	s.logger.Printf("Pruned %d history records below version %d", len(toDelete), upToVersion)
	return nil
}

// ---------------------------------- keys ----------------------------------

// escapeHistKey replaces 0x00 with 0x00 0xff so the 0x00 terminator before
// the version suffix is unambiguous.
func escapeHistKey(key []byte) []byte {
	out := make([]byte, 0, len(key)+2)
	for _, b := range key {
		if b == 0x00 {
			out = append(out, 0x00, 0xff)
		} else {
			out = append(out, b)
		}
	}
	return out
}

func histKey(key []byte, version uint64) []byte {
	esc := escapeHistKey(key)
	out := make([]byte, 0, 1+len(esc)+9)
	out = append(out, prefixHistory...)
	out = append(out, esc...)
	out = append(out, 0x00)
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], version)
	return append(out, v[:]...)
}

func parseHistKey(phys []byte) ([]byte, uint64, error) {
	body := phys[len(prefixHistory):]
	var key []byte
	for i := 0; i < len(body); i++ {
		if body[i] != 0x00 {
			key = append(key, body[i])
			continue
		}
		if i+1 < len(body) && body[i+1] == 0xff {
			key = append(key, 0x00)
			i++
			continue
		}
		// Terminator: the rest is the version.
		rest := body[i+1:]
		if len(rest) != 8 {
			return nil, 0, fmt.Errorf("%w: malformed history key", types.ErrCommitment)
		}
		return key, binary.BigEndian.Uint64(rest), nil
	}
	return nil, 0, fmt.Errorf("%w: history key missing version suffix", types.ErrCommitment)
}

// --------------------------------- views -----------------------------------

// latestView reads the 'l' column directly.
type latestView struct {
	store *DiskStore
}

func (v *latestView) Read(key []byte) ([]byte, error) {
	return v.store.db.Get(Concat(prefixLatest, key))
}

func (v *latestView) Scan(min, max []byte, order types.Order) (Iterator, error) {
	if rangeIsEmpty(min, max) {
		return EmptyIterator(), nil
	}
	lo, hi := PrefixRange(prefixLatest, min, max)
	var (
		it  dbm.Iterator
		err error
	)
	if order == types.Ascending {
		it, err = v.store.db.Iterator(lo, hi)
	} else {
		it, err = v.store.db.ReverseIterator(lo, hi)
	}
	if err != nil {
		return nil, err
	}
	return &dbmIterator{inner: it, namespace: prefixLatest}, nil
}

func (v *latestView) Write([]byte, []byte) error  { return types.ErrImmutableState }
func (v *latestView) Remove([]byte) error         { return types.ErrImmutableState }
func (v *latestView) RemoveRange([]byte, []byte) error { return types.ErrImmutableState }

// historicalView resolves reads against the history column at a pinned
// version.
type historicalView struct {
	store   *DiskStore
	version uint64
}

func (v *historicalView) Read(key []byte) ([]byte, error) {
	base := append(Concat(prefixHistory, escapeHistKey(key)), 0x00)
	var upper [8]byte
	binary.BigEndian.PutUint64(upper[:], v.version+1)
	it, err := v.store.db.ReverseIterator(base, append(bytes.Clone(base), upper[:]...))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if !it.Valid() {
		return nil, nil
	}
	return decodeHistValue(it.Value()), nil
}

func (v *historicalView) Scan(min, max []byte, order types.Order) (Iterator, error) {
	if rangeIsEmpty(min, max) {
		return EmptyIterator(), nil
	}
	// Walk the whole history range once, picking for each key the newest
	// record at or below the pinned version. Historical scans are a cold
	// path (debug queries, light clients), so materializing is acceptable.
	var lo, hi []byte
	if min != nil {
		lo = Concat(prefixHistory, escapeHistKey(min))
	} else {
		lo = bytes.Clone(prefixHistory)
	}
	if max != nil {
		hi = Concat(prefixHistory, escapeHistKey(max))
	} else {
		hi = IncrementLastByte(prefixHistory)
	}
	it, err := v.store.db.Iterator(lo, hi)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var (
		records []types.Record
		current []byte
		best    []byte
		have    bool
	)
	flush := func() {
		if have && best != nil {
			records = append(records, types.Record{Key: current, Value: best})
		}
		have, best = false, nil
	}
	for ; it.Valid(); it.Next() {
		userKey, version, err := parseHistKey(it.Key())
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(userKey, current) {
			flush()
			current = userKey
		}
		if version <= v.version {
			// Records of one key arrive in ascending version order, so the
			// last qualifying one wins.
			best = decodeHistValue(bytes.Clone(it.Value()))
			have = true
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	flush()

	if order == types.Descending {
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	}
	return &sliceIterator{records: records}, nil
}

func (v *historicalView) Write([]byte, []byte) error  { return types.ErrImmutableState }
func (v *historicalView) Remove([]byte) error         { return types.ErrImmutableState }
func (v *historicalView) RemoveRange([]byte, []byte) error { return types.ErrImmutableState }

func decodeHistValue(raw []byte) []byte {
	if len(raw) == 0 || raw[0] == histTombstone {
		return nil
	}
	return bytes.Clone(raw[1:])
}

// commitView reads the 'c' column.
type commitView struct {
	store *DiskStore
}

func (v *commitView) Read(key []byte) ([]byte, error) {
	return v.store.db.Get(Concat(prefixCommitment, key))
}

func (v *commitView) Scan(min, max []byte, order types.Order) (Iterator, error) {
	if rangeIsEmpty(min, max) {
		return EmptyIterator(), nil
	}
	lo, hi := PrefixRange(prefixCommitment, min, max)
	var (
		it  dbm.Iterator
		err error
	)
	if order == types.Ascending {
		it, err = v.store.db.Iterator(lo, hi)
	} else {
		it, err = v.store.db.ReverseIterator(lo, hi)
	}
	if err != nil {
		return nil, err
	}
	return &dbmIterator{inner: it, namespace: prefixCommitment}, nil
}

func (v *commitView) Write([]byte, []byte) error  { return types.ErrImmutableState }
func (v *commitView) Remove([]byte) error         { return types.ErrImmutableState }
func (v *commitView) RemoveRange([]byte, []byte) error { return types.ErrImmutableState }

// dbmIterator adapts dbm.Iterator, trimming the column prefix.
type dbmIterator struct {
	inner     dbm.Iterator
	namespace []byte
}

func (it *dbmIterator) Next() (types.Record, bool, error) {
	if !it.inner.Valid() {
		if err := it.inner.Error(); err != nil {
			return types.Record{}, false, err
		}
		return types.Record{}, false, nil
	}
	rec := types.Record{
		Key:   TrimPrefix(it.namespace, it.inner.Key()),
		Value: bytes.Clone(it.inner.Value()),
	}
	it.inner.Next()
	return rec, true, nil
}

func (it *dbmIterator) Close() error {
	return it.inner.Close()
}
