package coursevec

import (
	"errors"
	"fmt"
)

var (
	// ErrInput indicates malformed input such as a bad image or geographic
	// boundary, fatal for the run
	ErrInput = errors.New("malformed input")

	// ErrPerceptionUnavailable indicates the perception model could not be
	// reached, the caller may retry
	ErrPerceptionUnavailable = errors.New("perception unavailable")

	// ErrDuplicateInput indicates the same source image region was already
	// ingested into the candidate store
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrAlreadyAssigned indicates the candidate is already assigned to a
	// different hole, it must be unassigned first
	ErrAlreadyAssigned = errors.New("candidate already assigned")

	// ErrIncompleteHole indicates finalize was invoked on a hole that does
	// not yet have both a green and a fairway
	ErrIncompleteHole = errors.New("hole incomplete")
)

// GeometryError reports a defective traced boundary for a single candidate.
// The candidate is excluded from the output document while the run
// continues for all others.
type GeometryError struct {
	// CandidateID of the candidate whose boundary is defective
	CandidateID int64
	// Detail describes the defect
	Detail string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error for candidate %d: %s", e.CandidateID, e.Detail)
}
