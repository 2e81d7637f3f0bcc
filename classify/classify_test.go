package classify

import (
	"testing"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/store"
)

// greenFV is a feature vector typical of a putting green, compact, smooth
// and saturated green
func greenFV() *store.FeatureVector {
	return &store.FeatureVector{
		Area:               800,
		Perimeter:          110,
		Compactness:        0.8,
		Elongation:         1.2,
		BoxFill:            0.8,
		HueMean:            110,
		HueStdDev:          10,
		SatMean:            0.5,
		ValMean:            0.45,
		EdgeDensity:        0.05,
		HasColor:           true,
		NearestGreenDist:   -1,
		NearestFairwayDist: -1,
	}
}

func TestClassifyGreen(t *testing.T) {

	r := NewRuleScorer(DefaultParams())

	ftype, conf := r.Classify(greenFV())

	if ftype != coursevec.Green {
		t.Errorf("expected green, got %v with confidence %v", ftype, conf)
	}

	if conf < 0.9 {
		t.Errorf("expected confidence >= 0.9 for a clear green, got %v", conf)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {

	r := NewRuleScorer(DefaultParams())

	fv := greenFV()

	wantType, wantConf := r.Classify(fv)

	for i := 0; i < 100; i++ {

		gotType, gotConf := r.Classify(fv)

		if gotType != wantType || gotConf != wantConf {
			t.Fatalf("classification not deterministic: got (%v, %v), want (%v, %v)",
				gotType, gotConf, wantType, wantConf)
		}
	}
}

func TestClassifyTieResolvesByPriority(t *testing.T) {

	r := NewRuleScorer(DefaultParams())

	// hue on the border between green and water so both score within
	// epsilon of each other, the priority order must pick water
	fv := &store.FeatureVector{
		Area:               900,
		Compactness:        0.9,
		Elongation:         1.0,
		HueMean:            170,
		SatMean:            0.5,
		ValMean:            0.5,
		EdgeDensity:        0,
		HasColor:           true,
		NearestGreenDist:   -1,
		NearestFairwayDist: -1,
	}

	ftype, _ := r.Classify(fv)

	if ftype != coursevec.Water {
		t.Errorf("expected tie resolved to water by priority, got %v", ftype)
	}
}

func TestClassifyRestrictedFeatureSet(t *testing.T) {

	// same borderline hue as the tie test, but on a course with no water
	// hazards the water type must never win
	fv := &store.FeatureVector{
		Area:               900,
		Compactness:        0.9,
		Elongation:         1.0,
		HueMean:            170,
		SatMean:            0.5,
		ValMean:            0.5,
		EdgeDensity:        0,
		HasColor:           true,
		NearestGreenDist:   -1,
		NearestFairwayDist: -1,
	}

	params := DefaultParams()
	params.FeatureSet = map[coursevec.FeatureType]bool{
		coursevec.Green:   true,
		coursevec.Tee:     true,
		coursevec.Fairway: true,
		coursevec.Bunker:  true,
		coursevec.Rough:   true,
	}

	ftype, _ := NewRuleScorer(params).Classify(fv)

	if ftype == coursevec.Water {
		t.Fatal("water won despite being outside the course feature set")
	}

	if ftype != coursevec.Green {
		t.Errorf("expected green with water excluded, got %v", ftype)
	}
}

func TestClassifyConfidenceInRange(t *testing.T) {

	r := NewRuleScorer(DefaultParams())

	vectors := []*store.FeatureVector{
		greenFV(),
		{Area: 50, Compactness: 0.2, Elongation: 8},
		{Area: 20000, Compactness: 0.4, Elongation: 6, HueMean: 95, SatMean: 0.4,
			ValMean: 0.4, EdgeDensity: 0.1, HasColor: true,
			NearestGreenDist: 40, NearestFairwayDist: 10, HasNeighbors: true},
		{Area: 400, HueMean: 45, SatMean: 0.1, ValMean: 0.8, EdgeDensity: 0.02,
			Compactness: 0.6, Elongation: 1.5, HasColor: true,
			NearestGreenDist: 15, NearestFairwayDist: 30, HasNeighbors: true},
	}

	for i, fv := range vectors {

		_, conf := r.Classify(fv)

		if conf < 0 || conf > 1 {
			t.Errorf("vector %d: confidence %v outside 0.0-1.0", i, conf)
		}
	}
}

func TestClassifyBunkerWithContext(t *testing.T) {

	r := NewRuleScorer(DefaultParams())

	// bright pale sandy region right next to an accepted green
	fv := &store.FeatureVector{
		Area:               400,
		Compactness:        0.6,
		Elongation:         1.5,
		HueMean:            45,
		SatMean:            0.1,
		ValMean:            0.8,
		EdgeDensity:        0.02,
		HasColor:           true,
		NearestGreenDist:   15,
		NearestFairwayDist: 30,
		HasNeighbors:       true,
	}

	ftype, conf := r.Classify(fv)

	if ftype != coursevec.Bunker {
		t.Errorf("expected bunker, got %v with confidence %v", ftype, conf)
	}

	// the same region far away from any green or fairway must score lower
	far := *fv
	far.NearestGreenDist = 900
	far.NearestFairwayDist = 900

	_, farConf := r.Classify(&far)

	if farConf >= conf {
		t.Errorf("expected context to lower isolated bunker confidence, near=%v far=%v",
			conf, farConf)
	}
}
