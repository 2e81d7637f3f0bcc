package classify

import (
	"math"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// Gate rule names recorded in GateDecision.Reasons for explainability
const (
	ReasonLowConfidence   = "low_confidence"
	ReasonSizeOutOfRange  = "size_out_of_range"
	ReasonUncertain       = "uncertain_confidence"
	ReasonNoNearbyFairway = "no_nearby_fairway"
)

// SizeRange bounds the plausible ground area of a feature type
type SizeRange struct {
	// Min ground area, square ground units
	Min float64
	// Max ground area, square ground units
	Max float64
}

// GateParams defines the gate configuration.  RejectThreshold must not
// exceed AcceptThreshold, configuring them equal eliminates the review band
// entirely.
type GateParams struct {
	// RejectThreshold rejects any classification at or below this
	// confidence, the boundary is inclusive on the reject side
	RejectThreshold float32
	// AcceptThreshold is the minimum confidence for automatic acceptance
	AcceptThreshold float32
	// SizeBounds holds the plausible ground area range per feature type,
	// types without an entry are not size checked
	SizeBounds map[coursevec.FeatureType]SizeRange
	// AdjacencyRadius is the ground distance within which a green must
	// have a fairway candidate to be accepted without review
	AdjacencyRadius float64
}

// DefaultGateParams returns gate parameters with:
// - Reject Threshold: 0.35
// - Accept Threshold: 0.8
// - Adjacency Radius: 120
// and per-type size bounds calibrated for ground units of one metre
func DefaultGateParams() GateParams {
	return GateParams{
		RejectThreshold: 0.35,
		AcceptThreshold: 0.8,
		AdjacencyRadius: 120,
		SizeBounds: map[coursevec.FeatureType]SizeRange{
			coursevec.Green:   {Min: 100, Max: 4000},
			coursevec.Tee:     {Min: 20, Max: 1500},
			coursevec.Fairway: {Min: 2000, Max: 80000},
			coursevec.Bunker:  {Min: 10, Max: 3000},
			coursevec.Water:   {Min: 50, Max: 500000},
			coursevec.Rough:   {Min: 100, Max: 200000},
		},
	}
}

// Gate thresholds classifications into auto accept, auto reject and needs
// review outcomes
type Gate struct {
	// Params are the gate configuration parameters
	Params GateParams
}

// NewGate returns a gate.  A RejectThreshold above the AcceptThreshold is
// pulled down to it, the invariant reject <= accept always holds.
func NewGate(p GateParams) *Gate {

	if p.RejectThreshold > p.AcceptThreshold {
		p.RejectThreshold = p.AcceptThreshold
	}

	return &Gate{Params: p}
}

// Decide evaluates the gate rules for a classified candidate in fixed
// order, the first triggering reject rule short circuits:
//
//  1. confidence at or below the reject threshold rejects
//  2. ground area outside the configured bounds for the type rejects
//  3. confidence at or above the accept threshold with no contextual rule
//     violated accepts
//  4. anything else needs review, with every soft rule that fell short
//     recorded for reviewer context
//
// A candidate whose decision was already resolved by a human keeps that
// decision permanently.
func (g *Gate) Decide(s *store.Store, c *store.Candidate) *store.GateDecision {

	if c.Gate != nil && c.Gate.HumanResolved {
		return c.Gate
	}

	cl := c.Class

	if cl.Confidence <= g.Params.RejectThreshold {
		return &store.GateDecision{
			Outcome: store.AutoReject,
			Reasons: []string{ReasonLowConfidence},
		}
	}

	if bounds, ok := g.Params.SizeBounds[cl.Type]; ok {

		area := groundArea(c)

		if area < bounds.Min || area > bounds.Max {
			return &store.GateDecision{
				Outcome: store.AutoReject,
				Reasons: []string{ReasonSizeOutOfRange},
			}
		}
	}

	violations := g.contextViolations(s, c)

	if cl.Confidence >= g.Params.AcceptThreshold && len(violations) == 0 {
		return &store.GateDecision{Outcome: store.AutoAccept}
	}

	reasons := make([]string, 0, len(violations)+1)

	if cl.Confidence < g.Params.AcceptThreshold {
		reasons = append(reasons, ReasonUncertain)
	}

	reasons = append(reasons, violations...)

	return &store.GateDecision{
		Outcome: store.NeedsReview,
		Reasons: reasons,
	}
}

// contextViolations returns the names of the contextual consistency rules
// the candidate falls foul of
func (g *Gate) contextViolations(s *store.Store, c *store.Candidate) []string {

	var violations []string

	// a green with no fairway candidate within the adjacency radius is
	// suspicious, greens sit at the end of a fairway
	if c.Class.Type == coursevec.Green {
		if !hasNearbyOfType(s, c, coursevec.Fairway, g.Params.AdjacencyRadius) {
			violations = append(violations, ReasonNoNearbyFairway)
		}
	}

	return violations
}

// groundArea converts the mask pixel area into square ground units, falling
// back to raw pixel area when the candidate has no geo transform
func groundArea(c *store.Candidate) float64 {

	area := float64(c.Mask.Area())

	if c.Geo.Valid() {
		return area * c.Geo.PixelWidth * c.Geo.PixelHeight
	}

	return area
}

// hasNearbyOfType reports whether any active candidate classified as the
// given type has its box center within the radius of c's box center, both
// measured in ground coordinates
func hasNearbyOfType(s *store.Store, c *store.Candidate, t coursevec.FeatureType,
	radius float64) bool {

	cx, cy := boxCenterGround(c)

	it := s.Query(store.ActiveOfType(t))

	for {
		other, ok := it.Next()

		if !ok {
			return false
		}

		if other.ID == c.ID {
			continue
		}

		ox, oy := boxCenterGround(other)

		if math.Hypot(ox-cx, oy-cy) <= radius {
			return true
		}
	}
}

// boxCenterGround returns the candidate's bounding box center in ground
// coordinates, or raw pixels when no geo transform is present
func boxCenterGround(c *store.Candidate) (float64, float64) {

	px := float64(c.Box.CenterX())
	py := float64(c.Box.CenterY())

	if !c.Geo.Valid() {
		return px, py
	}

	return c.Geo.PixelToGeo(px, py)
}
