// Package hole drives the association of accepted candidates with numbered
// holes, keeping each hole's feature set consistent through an explicit
// state machine.
package hole

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// State represents the assignment state of a hole
type State int

const (
	// Hole has no candidates assigned
	Empty State = 0
	// Hole has at least one candidate but lacks a green or a fairway
	Partial State = 1
	// Hole has at least one green and one fairway assigned
	Complete State = 2
	// Hole has been explicitly finalized, assignments are frozen
	Finalized State = 3
)

// String returns the state name
func (s State) String() string {

	switch s {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	case Finalized:
		return "finalized"
	}

	return fmt.Sprintf("unknown(%d)", int(s))
}

// Hole is one numbered playable unit accumulating accepted candidates
// grouped by feature type
type Hole struct {
	// Number of the hole, 1 based
	Number int

	mu        sync.Mutex
	state     State
	assigned  map[coursevec.FeatureType][]int64
	finalized bool
}

// State returns the hole's current assignment state
func (h *Hole) State() State {

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Assigned returns the candidate ids assigned to the hole for the given
// feature type, in ascending id order
func (h *Hole) Assigned(t coursevec.FeatureType) []int64 {

	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]int64, len(h.assigned[t]))
	copy(ids, h.assigned[t])

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// AllAssigned returns every candidate id assigned to the hole
func (h *Hole) AllAssigned() []int64 {

	h.mu.Lock()
	defer h.mu.Unlock()

	var ids []int64

	for _, group := range h.assigned {
		ids = append(ids, group...)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// recomputeState derives the hole state from its assignments, caller holds
// the lock.  A finalized hole never regresses.
func (h *Hole) recomputeState() {

	if h.finalized {
		h.state = Finalized
		return
	}

	total := 0

	for _, group := range h.assigned {
		total += len(group)
	}

	if total == 0 {
		h.state = Empty
		return
	}

	if len(h.assigned[coursevec.Green]) > 0 && len(h.assigned[coursevec.Fairway]) > 0 {
		h.state = Complete
		return
	}

	h.state = Partial
}

// Course manages the holes of one course and enforces that a candidate is
// assigned to at most one hole at any time
type Course struct {
	mu    sync.Mutex
	holes []*Hole
	// owner maps an assigned candidate id to the hole number holding it
	owner map[int64]int
}

// NewCourse creates a course with the given number of holes, numbered from 1
func NewCourse(holeCount int) *Course {

	c := &Course{
		holes: make([]*Hole, holeCount),
		owner: make(map[int64]int),
	}

	for i := range c.holes {
		c.holes[i] = &Hole{
			Number:   i + 1,
			assigned: make(map[coursevec.FeatureType][]int64),
		}
	}

	return c
}

// Hole returns the hole with the given number
func (c *Course) Hole(number int) (*Hole, error) {

	if number < 1 || number > len(c.holes) {
		return nil, fmt.Errorf("no hole numbered %d on a %d hole course",
			number, len(c.holes))
	}

	return c.holes[number-1], nil
}

// Holes returns all holes in ascending number order
func (c *Course) Holes() []*Hole {
	return c.holes
}

// Assign associates an accepted candidate with a hole.  Assigning a
// candidate already held by a different hole fails with
// coursevec.ErrAlreadyAssigned, reassignment requires an explicit Unassign
// first.  Re-assigning to the same hole is a no-op.
func (c *Course) Assign(s *store.Store, number int, candidateID int64) error {

	h, err := c.Hole(number)

	if err != nil {
		return err
	}

	cand, ok := s.Get(candidateID)

	if !ok {
		return fmt.Errorf("no candidate with id %d", candidateID)
	}

	if cand.Retired {
		return fmt.Errorf("candidate %d is retired", candidateID)
	}

	if !cand.Accepted() {
		return fmt.Errorf("candidate %d has not been accepted by the gate", candidateID)
	}

	if cand.Class == nil {
		return fmt.Errorf("candidate %d has no classification", candidateID)
	}

	// claim the candidate under the course lock so two holes can never
	// hold it at once
	c.mu.Lock()

	if held, exists := c.owner[candidateID]; exists {

		c.mu.Unlock()

		if held == number {
			return nil
		}

		return fmt.Errorf("candidate %d is held by hole %d: %w",
			candidateID, held, coursevec.ErrAlreadyAssigned)
	}

	c.owner[candidateID] = number
	c.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finalized {

		// release the claim taken above
		c.mu.Lock()
		delete(c.owner, candidateID)
		c.mu.Unlock()

		return fmt.Errorf("hole %d is finalized", number)
	}

	t := cand.Class.Type
	h.assigned[t] = append(h.assigned[t], candidateID)
	h.recomputeState()

	return nil
}

// Unassign removes a candidate from a hole.  Removing the only green or
// fairway regresses a complete hole to partial, this is the only path a
// hole regresses on.
func (c *Course) Unassign(number int, candidateID int64) error {

	h, err := c.Hole(number)

	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finalized {
		return fmt.Errorf("hole %d is finalized", number)
	}

	c.mu.Lock()

	held, exists := c.owner[candidateID]

	if !exists || held != number {
		c.mu.Unlock()
		return fmt.Errorf("candidate %d is not assigned to hole %d", candidateID, number)
	}

	delete(c.owner, candidateID)
	c.mu.Unlock()

	for t, group := range h.assigned {
		for i, id := range group {
			if id == candidateID {
				h.assigned[t] = append(group[:i], group[i+1:]...)
				break
			}
		}
	}

	h.recomputeState()

	return nil
}

// Finalize freezes a hole's feature set.  Finalizing a hole that is not yet
// complete fails with coursevec.ErrIncompleteHole unless allowIncomplete is
// set.  Finalize is never automatic, a human or upstream policy may still
// be adding bunkers or water to a complete hole.
func (c *Course) Finalize(number int, allowIncomplete bool) error {

	h, err := c.Hole(number)

	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.finalized {
		return nil
	}

	if h.state != Complete && !allowIncomplete {
		return fmt.Errorf("hole %d is %s: %w", number, h.state, coursevec.ErrIncompleteHole)
	}

	h.finalized = true
	h.state = Finalized

	return nil
}

// Owner returns the hole number holding the candidate, or 0 when unassigned
func (c *Course) Owner(candidateID int64) int {

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.owner[candidateID]
}
