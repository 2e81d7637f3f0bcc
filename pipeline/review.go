package pipeline

import (
	"fmt"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// Decision is a human reviewer's verdict on a candidate held for review
type Decision string

const (
	// DecisionAccept commits the candidate as if the gate had accepted it
	DecisionAccept Decision = "accept"
	// DecisionReject retires the candidate
	DecisionReject Decision = "reject"
)

// ReasonHumanReview is recorded on gate decisions produced by a reviewer
const ReasonHumanReview = "human_review"

// Review summarises one candidate awaiting human review
type Review struct {
	// CandidateID of the held candidate
	CandidateID int64
	// Type the classifier assigned
	Type coursevec.FeatureType
	// Confidence the classifier assigned
	Confidence float32
	// Score is the perception model's mask confidence
	Score float32
	// Reasons are the gate rules that triggered the hold
	Reasons []string
}

// PendingReviews lists every active candidate held for human review, in
// ascending candidate id order
func (p *Pipeline) PendingReviews() []Review {

	var out []Review

	it := p.Store.Query(func(c *store.Candidate) bool {
		return !c.Retired && c.Gate != nil &&
			c.Gate.Outcome == store.NeedsReview && !c.Gate.HumanResolved
	})

	for {
		c, ok := it.Next()

		if !ok {
			break
		}

		out = append(out, Review{
			CandidateID: c.ID,
			Type:        c.Class.Type,
			Confidence:  c.Class.Confidence,
			Score:       c.Score,
			Reasons:     append([]string(nil), c.Gate.Reasons...),
		})
	}

	return out
}

// Resolve applies a reviewer's verdict to a candidate held for review.
// An optional override replaces the classifier's feature type and is
// never re-scored afterwards.  The resulting gate decision is terminal,
// rejected candidates are retired.
func (p *Pipeline) Resolve(candidateID int64, d Decision,
	override *coursevec.FeatureType) error {

	c, ok := p.Store.Get(candidateID)

	if !ok {
		return fmt.Errorf("no candidate with id %d", candidateID)
	}

	if c.Retired {
		return fmt.Errorf("candidate %d is retired", candidateID)
	}

	if c.Gate == nil || c.Gate.Outcome != store.NeedsReview ||
		c.Gate.HumanResolved {
		return fmt.Errorf("candidate %d is not awaiting review", candidateID)
	}

	if d != DecisionAccept && d != DecisionReject {
		return fmt.Errorf("unknown review decision %q: %w", d, coursevec.ErrInput)
	}

	if override != nil {
		err := p.Store.SetClassification(candidateID, &store.Classification{
			Type:          *override,
			Confidence:    1.0,
			HumanOverride: true,
		})

		if err != nil {
			return err
		}
	}

	outcome := store.AutoAccept

	if d == DecisionReject {
		outcome = store.AutoReject
	}

	err := p.Store.SetGateDecision(candidateID, &store.GateDecision{
		Outcome:       outcome,
		Reasons:       []string{ReasonHumanReview},
		HumanResolved: true,
	})

	if err != nil {
		return err
	}

	if d == DecisionReject {
		return p.Store.Retire(candidateID, store.ReasonRejected)
	}

	return nil
}
