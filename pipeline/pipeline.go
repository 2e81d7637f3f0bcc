// Package pipeline orchestrates a single vectorisation run, from raw
// perception masks through merging, feature extraction, classification,
// gating and hole assembly to the final polygon document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"runtime"
	"sync"

	"github.com/fairwaylab/go-coursevec"
	"github.com/fairwaylab/go-coursevec/classify"
	"github.com/fairwaylab/go-coursevec/extract"
	"github.com/fairwaylab/go-coursevec/hole"
	"github.com/fairwaylab/go-coursevec/merge"
	"github.com/fairwaylab/go-coursevec/store"
	"github.com/fairwaylab/go-coursevec/svggen"
)

// Params defines the run configuration
type Params struct {
	// Workers is the number of goroutines used for the per candidate
	// stages, defaults to the number of CPUs
	Workers int
	// HoleCount is the number of holes on the course
	HoleCount int
	// Merge configures the multi image merger
	Merge merge.Params
	// Extract configures the feature extractor
	Extract extract.Params
	// Classify configures the rule based classifier
	Classify classify.Params
	// Gate configures the acceptance gate
	Gate classify.GateParams
}

// DefaultParams returns run parameters with:
// - Workers: NumCPU
// - Hole Count: 18
// and the stage defaults of each package.
func DefaultParams() Params {
	return Params{
		Workers:   runtime.NumCPU(),
		HoleCount: 18,
		Merge:     merge.DefaultParams(),
		Extract:   extract.DefaultParams(),
		Classify:  classify.DefaultParams(),
		Gate:      classify.DefaultGateParams(),
	}
}

// imageSet holds the ingested source images for the extractor to sample
type imageSet struct {
	mu   sync.RWMutex
	imgs map[string]image.Image
}

func (is *imageSet) Image(id string) (image.Image, error) {

	is.mu.RLock()
	defer is.mu.RUnlock()

	img, ok := is.imgs[id]

	if !ok {
		return nil, fmt.Errorf("no ingested image %q: %w", id, coursevec.ErrInput)
	}

	return img, nil
}

// Pipeline drives one run over a course.  Each stage method is idempotent,
// re-running a stage only processes candidates the stage has not annotated
// yet, so a run can be resumed or interleaved with human review.
type Pipeline struct {
	// Store holds every candidate of the run
	Store *store.Store
	// Course holds the hole assignment state
	Course *hole.Course
	// Params are the run configuration parameters
	Params Params

	oracle     PerceptionOracle
	merger     *merge.Merger
	extractor  *extract.Extractor
	classifier classify.Classifier
	gate       *classify.Gate
	images     *imageSet
}

// NewPipeline builds a pipeline for one run over the course enclosed by
// the boundary polygon
func NewPipeline(p Params, oracle PerceptionOracle,
	boundary coursevec.GeoPolygon) (*Pipeline, error) {

	if oracle == nil {
		return nil, fmt.Errorf("nil perception oracle: %w", coursevec.ErrInput)
	}

	if p.Workers < 1 {
		p.Workers = runtime.NumCPU()
	}

	if p.HoleCount < 1 {
		p.HoleCount = 18
	}

	merger, err := merge.NewMerger(p.Merge, boundary)

	if err != nil {
		return nil, err
	}

	images := &imageSet{imgs: make(map[string]image.Image)}

	return &Pipeline{
		Store:      store.NewStore(),
		Course:     hole.NewCourse(p.HoleCount),
		Params:     p,
		oracle:     oracle,
		merger:     merger,
		extractor:  extract.NewExtractor(p.Extract, images),
		classifier: classify.NewRuleScorer(p.Classify),
		gate:       classify.NewGate(p.Gate),
		images:     images,
	}, nil
}

// Ingest runs the perception oracle over each input image and stores the
// resulting masks as candidates.  Images already ingested in this run are
// skipped, duplicate masks within an image are dropped and logged.  A
// detection failure wraps coursevec.ErrPerceptionUnavailable and aborts
// the remaining images.
func (p *Pipeline) Ingest(ctx context.Context, imgs []InputImage) error {

	for _, in := range imgs {

		if err := ctx.Err(); err != nil {
			return err
		}

		if in.ID == "" || in.Image == nil {
			return fmt.Errorf("input image missing id or pixels: %w",
				coursevec.ErrInput)
		}

		if !in.Geo.Valid() {
			return fmt.Errorf("input image %q has invalid geo transform: %w",
				in.ID, coursevec.ErrInput)
		}

		p.images.mu.Lock()
		_, seen := p.images.imgs[in.ID]

		if !seen {
			p.images.imgs[in.ID] = in.Image
		}
		p.images.mu.Unlock()

		if seen {
			continue
		}

		dets, err := p.oracle.Detect(ctx, in.Image)

		if err != nil {
			return fmt.Errorf("detect on image %q: %v: %w", in.ID, err,
				coursevec.ErrPerceptionUnavailable)
		}

		for _, d := range dets {
			_, err := p.Store.Add(in.ID, d.Mask, d.Score, in.Geo)

			if err != nil {
				if errors.Is(err, coursevec.ErrDuplicateInput) {
					log.Printf("image %s: dropped duplicate mask", in.ID)
					continue
				}

				return fmt.Errorf("ingest image %q: %w", in.ID, err)
			}
		}
	}

	return nil
}

// Merge collapses overlapping candidates from different source images into
// merged candidates on the common ground frame
func (p *Pipeline) Merge(ctx context.Context) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	return p.merger.Merge(p.Store)
}

// Extract computes feature descriptors for every active candidate that
// does not have them yet
func (p *Pipeline) Extract(ctx context.Context) error {

	cands := p.Store.Query(store.Active()).Collect()

	return parallelEach(ctx, cands, p.Params.Workers,
		func(c *store.Candidate) error {
			return p.extractor.Extract(p.Store, c)
		})
}

// Classify assigns a feature type and confidence to every active candidate
// that has descriptors but no classification yet
func (p *Pipeline) Classify(ctx context.Context) error {

	cands := p.Store.Query(store.Active()).Collect()

	return parallelEach(ctx, cands, p.Params.Workers,
		func(c *store.Candidate) error {

			if c.Class != nil {
				return nil
			}

			if c.Features == nil {
				return fmt.Errorf("candidate %d has no descriptors, "+
					"run extraction first", c.ID)
			}

			t, conf := p.classifier.Classify(c.Features)

			return p.Store.SetClassification(c.ID, &store.Classification{
				Type:       t,
				Confidence: conf,
			})
		})
}

// GateAll evaluates the acceptance gate for every active classified
// candidate without a decision yet.  Auto rejected candidates are retired.
//
// All verdicts are computed against the state the pass started from and
// applied afterwards.  Applying as we go would let one worker's retirement
// change a sibling's context rules and make outcomes depend on goroutine
// scheduling.
func (p *Pipeline) GateAll(ctx context.Context) error {

	cands := p.Store.Query(store.Active()).Collect()

	idx := make(map[int64]int, len(cands))

	for i, c := range cands {
		idx[c.ID] = i
	}

	decisions := make([]*store.GateDecision, len(cands))

	err := parallelEach(ctx, cands, p.Params.Workers,
		func(c *store.Candidate) error {

			if c.Class == nil || c.Gate != nil {
				return nil
			}

			decisions[idx[c.ID]] = p.gate.Decide(p.Store, c)
			return nil
		})

	if err != nil {
		return err
	}

	for i, gd := range decisions {

		if gd == nil {
			continue
		}

		if err := p.applyDecision(cands[i].ID, gd); err != nil {
			return err
		}
	}

	return nil
}

// Refine recomputes neighbourhood descriptors for bunker and rough
// candidates and re-runs classification and gating on them.  These two
// types depend on accepted context, a first pass gate must have run so
// greens and fairways are committed.  Human overridden classifications and
// human resolved gate decisions are left untouched.
//
// Like GateAll, new classifications and verdicts are computed against the
// pre-pass state and applied afterwards, so a candidate re-classified away
// from bunker or rough cannot influence a sibling's context rules within
// the same pass.
func (p *Pipeline) Refine(ctx context.Context) error {

	cands := p.Store.Query(store.Active()).Collect()

	idx := make(map[int64]int, len(cands))

	for i, c := range cands {
		idx[c.ID] = i
	}

	classes := make([]*store.Classification, len(cands))
	decisions := make([]*store.GateDecision, len(cands))

	err := parallelEach(ctx, cands, p.Params.Workers,
		func(c *store.Candidate) error {

			if c.Class == nil || c.Class.HumanOverride {
				return nil
			}

			if c.Class.Type != coursevec.Bunker && c.Class.Type != coursevec.Rough {
				return nil
			}

			if err := p.extractor.Refine(p.Store, c); err != nil {
				return err
			}

			// pick up the refined feature vector
			cur, ok := p.Store.Get(c.ID)

			if !ok {
				return fmt.Errorf("candidate %d disappeared during refinement", c.ID)
			}

			t, conf := p.classifier.Classify(cur.Features)

			i := idx[c.ID]
			classes[i] = &store.Classification{Type: t, Confidence: conf}

			// re-gate under the new classification
			cur.Class = classes[i]
			decisions[i] = p.gate.Decide(p.Store, cur)

			return nil
		})

	if err != nil {
		return err
	}

	for i, cl := range classes {

		if cl == nil {
			continue
		}

		if err := p.Store.SetClassification(cands[i].ID, cl); err != nil {
			return err
		}

		if err := p.applyDecision(cands[i].ID, decisions[i]); err != nil {
			return err
		}
	}

	return nil
}

// applyDecision stores a gate verdict and retires the candidate when auto
// rejected
func (p *Pipeline) applyDecision(id int64, gd *store.GateDecision) error {

	if err := p.Store.SetGateDecision(id, gd); err != nil {
		return err
	}

	if gd.Outcome == store.AutoReject && !gd.HumanResolved {
		return p.Store.Retire(id, store.ReasonRejected)
	}

	return nil
}

// Run executes the full stage sequence over the input images.  It stops at
// the first stage error and leaves the store in the state reached so far,
// re-running Run resumes from there.
func (p *Pipeline) Run(ctx context.Context, imgs []InputImage) error {

	if err := p.Ingest(ctx, imgs); err != nil {
		return err
	}

	if err := p.Merge(ctx); err != nil {
		return err
	}

	if err := p.Extract(ctx); err != nil {
		return err
	}

	if err := p.Classify(ctx); err != nil {
		return err
	}

	if err := p.GateAll(ctx); err != nil {
		return err
	}

	return p.Refine(ctx)
}

// Cancel abandons the run, retiring every active candidate so the audit
// trail records how far the run got
func (p *Pipeline) Cancel() {
	p.Store.RetireAllActive(store.ReasonRunCancelled)
}

// Generate builds the layered polygon document from the finalized holes
// and accepted unassigned candidates
func (p *Pipeline) Generate() (*svggen.Document, error) {

	frame := p.merger.Frame()

	gen := svggen.NewGenerator(svggen.Params{
		Geo:    frame.Geo,
		Width:  frame.Width,
		Height: frame.Height,
	})

	return gen.Generate(p.Store, p.Course)
}
