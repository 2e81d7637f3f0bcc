// Package classify maps candidate feature vectors to course feature types
// and gates the results by confidence into accepted, rejected and
// needs-review outcomes.
package classify

import (
	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// Classifier maps a feature vector to a course feature type with a
// confidence score on the 0.0-1.0 scale the gate thresholds expect.  A
// classifier must be a pure, deterministic function of the descriptor
// vector so implementations are swappable without changing downstream
// stages.
type Classifier interface {
	Classify(fv *store.FeatureVector) (coursevec.FeatureType, float32)
}

// Params defines the rule scorer configuration
type Params struct {
	// Epsilon is the score margin within which competing feature types are
	// considered tied and resolved by the fixed priority order
	Epsilon float32
	// ContextRadius is the ground distance within which an accepted green
	// or fairway boosts the score of context dependent types
	ContextRadius float64
	// FeatureSet restricts classification to the listed feature types, nil
	// scores the full set.  Load one from a course label file with
	// LoadFeatureSet.  Ignore is always scored.
	FeatureSet map[coursevec.FeatureType]bool
}

// DefaultParams returns rule scorer parameters with:
// - Epsilon: 0.05
// - Context Radius: 120
func DefaultParams() Params {
	return Params{
		Epsilon:       0.05,
		ContextRadius: 120,
	}
}

// RuleScorer is a deterministic rule based classifier scoring each feature
// type from hue, texture and shape descriptors
type RuleScorer struct {
	// Params are the scorer configuration parameters
	Params Params
}

// NewRuleScorer returns a rule based classifier
func NewRuleScorer(p Params) *RuleScorer {
	return &RuleScorer{Params: p}
}

// Classify scores every feature type in the configured set and returns the
// winner with its confidence.  Types scoring within epsilon of the maximum
// are resolved by the fixed priority order water > bunker > green > tee >
// fairway > rough > ignore.
func (r *RuleScorer) Classify(fv *store.FeatureVector) (coursevec.FeatureType, float32) {

	scores := map[coursevec.FeatureType]float32{
		coursevec.Water:   r.scoreWater(fv),
		coursevec.Bunker:  r.scoreBunker(fv),
		coursevec.Green:   r.scoreGreen(fv),
		coursevec.Tee:     r.scoreTee(fv),
		coursevec.Fairway: r.scoreFairway(fv),
		coursevec.Rough:   r.scoreRough(fv),
		coursevec.Ignore:  0.10,
	}

	for t := range scores {
		if !r.inFeatureSet(t) {
			delete(scores, t)
		}
	}

	max := float32(0)

	for _, s := range scores {
		if s > max {
			max = s
		}
	}

	// first type in priority order within epsilon of the maximum wins
	for _, t := range coursevec.TiePriority {
		if s, ok := scores[t]; ok && s >= max-r.Params.Epsilon {
			return t, s
		}
	}

	return coursevec.Ignore, scores[coursevec.Ignore]
}

// inFeatureSet reports whether the type participates in scoring, an empty
// set means no restriction
func (r *RuleScorer) inFeatureSet(t coursevec.FeatureType) bool {

	if t == coursevec.Ignore || len(r.Params.FeatureSet) == 0 {
		return true
	}

	return r.Params.FeatureSet[t]
}

// scoreWater favours blue hues with a smooth surface
func (r *RuleScorer) scoreWater(fv *store.FeatureVector) float32 {

	if !fv.HasColor {
		return 0.05
	}

	hue := band(fv.HueMean, 180, 260, 30)
	smooth := 1 - clamp01(fv.EdgeDensity*4)
	sat := band(fv.SatMean, 0.25, 1.0, 0.15)

	return float32(0.6*hue + 0.25*smooth + 0.15*sat)
}

// scoreGreen favours compact, smooth, saturated green regions
func (r *RuleScorer) scoreGreen(fv *store.FeatureVector) float32 {

	shape := band(fv.Compactness, 0.5, 1.0, 0.2) * band(fv.Elongation, 0, 2.5, 1.0)

	if !fv.HasColor {
		return float32(0.4 * shape)
	}

	hue := band(fv.HueMean, 70, 160, 20)
	smooth := 1 - clamp01(fv.EdgeDensity*3)
	sat := band(fv.SatMean, 0.3, 1.0, 0.15)

	return float32(0.35*hue + 0.25*smooth + 0.2*shape + 0.2*sat)
}

// scoreTee favours small compact green regions
func (r *RuleScorer) scoreTee(fv *store.FeatureVector) float32 {

	shape := band(fv.Compactness, 0.45, 1.0, 0.2) * band(fv.Area, 0, 2500, 2000)

	if !fv.HasColor {
		return float32(0.35 * shape)
	}

	hue := band(fv.HueMean, 70, 160, 20)

	return float32(0.45*hue + 0.55*shape)
}

// scoreFairway favours large elongated green regions
func (r *RuleScorer) scoreFairway(fv *store.FeatureVector) float32 {

	shape := band(fv.Elongation, 2.0, 50, 1.0) * band(fv.Area, 10000, 1e9, 8000)

	if !fv.HasColor {
		return float32(0.5 * shape)
	}

	hue := band(fv.HueMean, 60, 160, 25)

	return float32(0.45*hue + 0.55*shape)
}

// scoreBunker favours bright low saturation sandy regions, boosted when a
// green or fairway is known to be nearby
func (r *RuleScorer) scoreBunker(fv *store.FeatureVector) float32 {

	base := 0.0

	if fv.HasColor {
		hue := band(fv.HueMean, 25, 65, 15)
		bright := band(fv.ValMean, 0.55, 1.0, 0.15)
		pale := 1 - clamp01(fv.SatMean*1.8)

		base = 0.4*hue + 0.3*bright + 0.3*pale
	} else {
		base = 0.3 * band(fv.Compactness, 0.3, 1.0, 0.2)
	}

	return float32(clamp01(base * r.contextFactor(fv)))
}

// scoreRough favours textured green-brown regions, slightly boosted by a
// nearby fairway
func (r *RuleScorer) scoreRough(fv *store.FeatureVector) float32 {

	base := 0.0

	if fv.HasColor {
		hue := band(fv.HueMean, 50, 150, 30)
		rough := clamp01(fv.EdgeDensity * 3)

		base = 0.5*hue + 0.3*rough + 0.05
	} else {
		base = 0.25
	}

	return float32(clamp01(base * r.contextFactor(fv)))
}

// contextFactor scales a context dependent score by neighbour proximity.
// Before the refinement pass neighbour descriptors are absent and the
// factor is neutral.
func (r *RuleScorer) contextFactor(fv *store.FeatureVector) float64 {

	if !fv.HasNeighbors {
		return 1.0
	}

	near := fv.NearestGreenDist

	if fv.NearestFairwayDist >= 0 && (near < 0 || fv.NearestFairwayDist < near) {
		near = fv.NearestFairwayDist
	}

	if near < 0 {
		// no accepted green or fairway anywhere, unlikely to be a
		// maintained course feature
		return 0.7
	}

	if near <= r.Params.ContextRadius {
		return 1.15
	}

	return 0.85
}

// band is a trapezoid membership function, 1.0 inside [lo,hi] falling
// linearly to 0 over the soft margin on both sides
func band(x, lo, hi, soft float64) float64 {

	if x >= lo && x <= hi {
		return 1.0
	}

	if x < lo {
		return clamp01(1 - (lo-x)/soft)
	}

	return clamp01(1 - (x-hi)/soft)
}

func clamp01(x float64) float64 {

	if x < 0 {
		return 0
	}

	if x > 1 {
		return 1
	}

	return x
}
