// Package forest implements a bagged ensemble of regression trees
// (random forest) with reproducible, seed-driven sampling.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"
	lop "github.com/samber/lo/parallel"
)

var (
	ErrEmptyTrainingSet = errors.New("forest: empty training set")
	ErrShapeMismatch    = errors.New("forest: inconsistent input shape")
	ErrNotFitted        = errors.New("forest: model is not fitted")
)

// Config controls ensemble growth.
type Config struct {
	Trees           int
	MaxDepth        int // 0 = unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 = all features at every split
	Bootstrap       bool
	Seed            uint64
	Parallel        bool
}

// DefaultConfig matches the forecast model: 200 trees, depth 20, seed 42.
func DefaultConfig() Config {
	return Config{
		Trees:           200,
		MaxDepth:        20,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
		Parallel:        true,
	}
}

// Regressor averages the predictions of its trees.
type Regressor struct {
	cfg   Config
	trees []*Tree
	width int
}

// NewRegressor returns an unfitted ensemble.
func NewRegressor(cfg Config) *Regressor {
	if cfg.Trees <= 0 {
		cfg.Trees = 1
	}
	return &Regressor{cfg: cfg}
}

type fitResult struct {
	tree *Tree
	err  error
}

// Fit grows every tree on its own bootstrap sample. Tree i draws from a PCG
// stream seeded with (Seed, i), so results do not depend on scheduling.
func (r *Regressor) Fit(ctx context.Context, x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), len(y))
	}
	width := len(x[0])
	if width == 0 {
		return fmt.Errorf("%w: zero-width rows", ErrShapeMismatch)
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}

	grow := func(_ int, i int) fitResult {
		if err := ctx.Err(); err != nil {
			return fitResult{err: err}
		}
		rng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(i)))
		return fitResult{tree: fitTree(x, y, r.sample(len(x), rng), r.cfg, rng)}
	}

	slots := lo.Range(r.cfg.Trees)
	var results []fitResult
	if r.cfg.Parallel {
		results = lop.Map(slots, grow)
	} else {
		results = lo.Map(slots, grow)
	}

	trees := make([]*Tree, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			return fmt.Errorf("fit forest: %w", res.err)
		}
		trees = append(trees, res.tree)
	}
	r.trees = trees
	r.width = width
	return nil
}

func (r *Regressor) sample(n int, rng *rand.Rand) []int {
	out := make([]int, n)
	if !r.cfg.Bootstrap {
		for i := range out {
			out[i] = i
		}
		return out
	}
	for i := range out {
		out[i] = rng.IntN(n)
	}
	return out
}

// Predict returns the mean tree prediction for one row.
func (r *Regressor) Predict(x []float64) (float64, error) {
	if len(r.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != r.width {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, len(x), r.width)
	}
	sum := 0.0
	for _, t := range r.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(r.trees)), nil
}

// PredictBatch predicts every row in order.
func (r *Regressor) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := r.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Trees returns the number of fitted trees.
func (r *Regressor) Trees() int { return len(r.trees) }

// MaxDepth returns the deepest fitted tree.
func (r *Regressor) MaxDepth() int {
	return lo.Max(lo.Map(r.trees, func(t *Tree, _ int) int { return t.Depth() }))
}
