// Package store holds the candidates for one pipeline run along with every
// derived annotation later stages attach.  It is the only shared mutable
// resource in the pipeline, all mutation goes through the store so writes
// to the same record are serialized.  Reads hand out consistent snapshots,
// a caller never observes a record mid-write and never shares memory with
// a concurrent writer.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fairwaylab/go-coursevec"
	"github.com/google/uuid"
)

// Store owns all candidate records for a single pipeline run
type Store struct {
	// RunID uniquely identifies the pipeline run the store belongs to
	RunID string

	idGen *idGenerator

	mu      sync.RWMutex
	records map[int64]*record
	// fingerprints of ingested masks keyed to detect duplicate ingestion
	// of the same source image region
	fingerprints map[[32]byte]int64
}

// record pairs a candidate with its own lock so concurrent writes to the
// same record are serialized and reads always see a consistent candidate
type record struct {
	mu   sync.Mutex
	cand *Candidate
}

// snapshot returns a consistent copy of the record's candidate.  The copy
// shares the mask, merge audit and annotation pointers, all of which are
// immutable once attached, the setters replace whole pointers instead of
// mutating in place.
func (r *record) snapshot() *Candidate {

	r.mu.Lock()
	snap := *r.cand
	r.mu.Unlock()

	return &snap
}

// NewStore creates an empty candidate store with a fresh run ID
func NewStore() *Store {
	return &Store{
		RunID:        uuid.New().String(),
		idGen:        newIDGenerator(),
		records:      make(map[int64]*record),
		fingerprints: make(map[[32]byte]int64),
	}
}

// Add inserts a new candidate built from a raw detection and returns it.
// Adding a mask whose content fingerprint was already ingested fails with
// coursevec.ErrDuplicateInput.
func (s *Store) Add(sourceImage string, mask *coursevec.Mask, score float32,
	geo coursevec.GeoTransform) (*Candidate, error) {

	if mask == nil || len(mask.Pix) == 0 {
		return nil, fmt.Errorf("empty mask: %w", coursevec.ErrInput)
	}

	fp := mask.Fingerprint()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.fingerprints[fp]; ok {
		return nil, fmt.Errorf("mask already ingested as candidate %d: %w",
			prev, coursevec.ErrDuplicateInput)
	}

	cand := &Candidate{
		ID:          s.idGen.getNext(),
		SourceImage: sourceImage,
		Mask:        mask,
		Score:       score,
		Box:         mask.Bounds(),
		Geo:         geo,
	}

	s.fingerprints[fp] = cand.ID
	s.records[cand.ID] = &record{cand: cand}

	snap := *cand

	return &snap, nil
}

// AddMerged inserts a candidate produced by the multi image merger.  Merged
// candidates bypass fingerprint duplicate detection since their mask is
// derived, not ingested.
func (s *Store) AddMerged(mask *coursevec.Mask, score float32,
	geo coursevec.GeoTransform, mergedFrom []int64) *Candidate {

	s.mu.Lock()
	defer s.mu.Unlock()

	cand := &Candidate{
		ID:         s.idGen.getNext(),
		Mask:       mask,
		Score:      score,
		Box:        mask.Bounds(),
		Geo:        geo,
		MergedFrom: mergedFrom,
	}

	s.records[cand.ID] = &record{cand: cand}

	snap := *cand

	return &snap
}

// Get returns a snapshot of the candidate with the given id, retired or
// not.  Writes applied after the call do not show up in the returned
// candidate, fetch again to observe them.
func (s *Store) Get(id int64) (*Candidate, bool) {

	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return rec.snapshot(), true
}

// Retire marks a candidate inactive without deleting it, preserving the
// audit trail.  Retiring an already retired candidate is a no-op.
func (s *Store) Retire(id int64, reason RetireReason) error {

	rec, err := s.lookup(id)

	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.cand.Retired {
		return nil
	}

	rec.cand.Retired = true
	rec.cand.RetiredFor = reason

	return nil
}

// RetireAllActive retires every active candidate with the given reason,
// used when the orchestration layer cancels a run
func (s *Store) RetireAllActive(reason RetireReason) {

	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))

	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	for _, rec := range recs {
		rec.mu.Lock()

		if !rec.cand.Retired {
			rec.cand.Retired = true
			rec.cand.RetiredFor = reason
		}

		rec.mu.Unlock()
	}
}

// SetFeatures attaches the extracted feature vector to a candidate
func (s *Store) SetFeatures(id int64, fv *FeatureVector) error {

	rec, err := s.lookup(id)

	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.cand.Features = fv
	return nil
}

// SetClassification attaches a classification to a candidate.  A human
// overridden classification is never replaced by the classifier.
func (s *Store) SetClassification(id int64, cl *Classification) error {

	rec, err := s.lookup(id)

	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.cand.Class != nil && rec.cand.Class.HumanOverride && !cl.HumanOverride {
		return nil
	}

	rec.cand.Class = cl
	return nil
}

// SetGateDecision attaches a gate decision to a candidate.  A human
// resolved decision is terminal and never replaced by the gate.
func (s *Store) SetGateDecision(id int64, gd *GateDecision) error {

	rec, err := s.lookup(id)

	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.cand.Gate != nil && rec.cand.Gate.HumanResolved && !gd.HumanResolved {
		return nil
	}

	rec.cand.Gate = gd
	return nil
}

// Len returns the number of records held, including retired ones
func (s *Store) Len() int {

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// lookup finds the record for an id
func (s *Store) lookup(id int64) (*record, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]

	if !ok {
		return nil, fmt.Errorf("no candidate with id %d", id)
	}

	return rec, nil
}

// Predicate selects candidates during a query
type Predicate func(*Candidate) bool

// Active matches every non-retired candidate
func Active() Predicate {
	return func(c *Candidate) bool {
		return !c.Retired
	}
}

// ActiveOfType matches non-retired candidates classified as the given type
func ActiveOfType(t coursevec.FeatureType) Predicate {
	return func(c *Candidate) bool {
		return !c.Retired && c.Class != nil && c.Class.Type == t
	}
}

// ActiveFromImage matches non-retired candidates from the given source image
func ActiveFromImage(sourceImage string) Predicate {
	return func(c *Candidate) bool {
		return !c.Retired && c.SourceImage == sourceImage
	}
}

// Query returns a lazy, restartable iterator over candidates matching the
// predicate.  The id set is snapshotted when the query is created, records
// added afterwards are not visited.  Iteration order is ascending id so
// results are deterministic.
func (s *Store) Query(pred Predicate) *Iter {

	s.mu.RLock()
	ids := make([]int64, 0, len(s.records))

	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return &Iter{
		store: s,
		ids:   ids,
		pred:  pred,
	}
}

// Iter is a restartable iterator over a snapshot of candidate ids
type Iter struct {
	store *Store
	ids   []int64
	pred  Predicate
	pos   int
}

// Next returns the next matching candidate, or false when the sequence is
// exhausted
func (it *Iter) Next() (*Candidate, bool) {

	for it.pos < len(it.ids) {

		cand, ok := it.store.Get(it.ids[it.pos])
		it.pos++

		if !ok {
			continue
		}

		if it.pred == nil || it.pred(cand) {
			return cand, true
		}
	}

	return nil, false
}

// Reset restarts the iterator at the beginning of its snapshot
func (it *Iter) Reset() {
	it.pos = 0
}

// Collect drains the iterator into a slice
func (it *Iter) Collect() []*Candidate {

	var out []*Candidate

	for {
		cand, ok := it.Next()

		if !ok {
			break
		}

		out = append(out, cand)
	}

	return out
}
