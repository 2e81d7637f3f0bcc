package coursevec

import (
	"fmt"
	"strings"
)

// FeatureType is the closed set of course feature classes a candidate can
// be classified into
type FeatureType int

const (
	Green FeatureType = iota
	Tee
	Fairway
	Bunker
	Water
	Rough
	Ignore
)

// featureNames maps each FeatureType to its label
var featureNames = map[FeatureType]string{
	Green:   "green",
	Tee:     "tee",
	Fairway: "fairway",
	Bunker:  "bunker",
	Water:   "water",
	Rough:   "rough",
	Ignore:  "ignore",
}

// String returns the label of the feature type
func (f FeatureType) String() string {

	if name, ok := featureNames[f]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", int(f))
}

// ParseFeatureType converts a label into its FeatureType
func ParseFeatureType(s string) (FeatureType, error) {

	s = strings.ToLower(strings.TrimSpace(s))

	for f, name := range featureNames {
		if name == s {
			return f, nil
		}
	}

	return Ignore, fmt.Errorf("unknown feature type %q", s)
}

// LayerOrder is the fixed z-order layers are drawn in the output document,
// first drawn at the bottom
var LayerOrder = []FeatureType{Water, Bunker, Rough, Fairway, Green, Tee}

// TiePriority is the fixed priority order used when multiple feature types
// score within epsilon of each other during classification, highest
// priority first
var TiePriority = []FeatureType{Water, Bunker, Green, Tee, Fairway, Rough, Ignore}
