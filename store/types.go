package store

import (
	"github.com/fairwaylab/go-coursevec"
)

// RetireReason records why a candidate was marked inactive
type RetireReason string

const (
	// ReasonMerged means the candidate was absorbed into a merged candidate
	ReasonMerged RetireReason = "merged"
	// ReasonRejected means the gate or a human reviewer rejected the candidate
	ReasonRejected RetireReason = "rejected"
	// ReasonRunCancelled means the run was cancelled by the orchestration layer
	ReasonRunCancelled RetireReason = "run_cancelled"
)

// Candidate is a single detected region and every annotation later pipeline
// stages attach to it.  The mask and bounding box are immutable after
// creation, only the merger may retire a candidate in favour of a merged one.
type Candidate struct {
	// ID is the stable unique identifier assigned at creation
	ID int64
	// SourceImage identifies which input image produced the candidate.  A
	// merged candidate carries the empty string and lives on the common
	// ground grid instead.
	SourceImage string
	// Mask is the binary raster of the detected region
	Mask *coursevec.Mask
	// Score is the perception model's own confidence for the mask, opaque
	// to the pipeline
	Score float32
	// Box is the axis aligned bounding box, always consistent with Mask
	Box coursevec.BoxRect
	// Geo maps the mask's pixel grid to ground coordinates
	Geo coursevec.GeoTransform
	// MergedFrom holds the candidate ids absorbed into this one by the
	// merger, empty if not merged
	MergedFrom []int64

	// Retired marks the candidate as logically destroyed
	Retired bool
	// RetiredFor records why the candidate was retired
	RetiredFor RetireReason

	// Features are the derived descriptors, nil until extraction has run
	Features *FeatureVector
	// Class is the classification result, nil until classification has run
	Class *Classification
	// Gate is the gate decision, nil until gating has run
	Gate *GateDecision
}

// Accepted reports whether the candidate passed the gate, either
// automatically or through a human reviewer
func (c *Candidate) Accepted() bool {
	return c.Gate != nil && c.Gate.Outcome == AutoAccept
}

// FeatureVector holds the derived geometric, color and neighbour
// descriptors computed for a candidate
type FeatureVector struct {
	// Area is the pixel count of the mask
	Area float64
	// Perimeter is the boundary pixel count of the mask
	Perimeter float64
	// Compactness is 4*pi*Area/Perimeter^2, 1.0 for a perfect circle
	Compactness float64
	// Elongation is the ratio of the major to minor axis of the mask's
	// second moment ellipse, 1.0 for a symmetric region
	Elongation float64
	// BoxFill is the fraction of the bounding box covered by the mask
	BoxFill float64

	// HueMean and HueStdDev summarise the hue of the masked pixels in
	// degrees 0-360
	HueMean   float64
	HueStdDev float64
	// SatMean is the mean saturation of the masked pixels 0-1
	SatMean float64
	// ValMean is the mean brightness of the masked pixels 0-1
	ValMean float64
	// EdgeDensity is the mean Sobel edge response inside the mask 0-1,
	// a texture roughness measure
	EdgeDensity float64
	// HasColor reports whether color statistics could be sampled from
	// source imagery
	HasColor bool

	// NearestGreenDist is the ground distance to the centroid of the
	// nearest accepted green, negative when no green is accepted yet
	NearestGreenDist float64
	// NearestFairwayDist is the ground distance to the centroid of the
	// nearest accepted fairway, negative when no fairway is accepted yet
	NearestFairwayDist float64
	// HasNeighbors reports whether the neighbour descriptors have been
	// computed by the refinement pass
	HasNeighbors bool
}

// Classification is the feature type and confidence assigned to a candidate
type Classification struct {
	// Type is the assigned course feature type
	Type coursevec.FeatureType
	// Confidence is the classifier's own certainty 0.0-1.0, distinct from
	// the perception model's mask score
	Confidence float32
	// HumanOverride marks a classification set by a reviewer, it is never
	// re-scored by the classifier
	HumanOverride bool
}

// Outcome is the gate's verdict for a candidate
type Outcome string

const (
	AutoAccept  Outcome = "auto_accept"
	AutoReject  Outcome = "auto_reject"
	NeedsReview Outcome = "needs_review"
)

// GateDecision records the gate's verdict and the rules that produced it
type GateDecision struct {
	// Outcome of the gate evaluation
	Outcome Outcome
	// Reasons is the ordered list of triggered rule names
	Reasons []string
	// HumanResolved marks a needs_review outcome resolved by a reviewer,
	// the decision is terminal and the gate rules are bypassed permanently
	HumanResolved bool
}
