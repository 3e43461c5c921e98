package forest

import (
	"math/rand/v2"
	"slices"
)

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	leaf      bool
}

// Tree is a CART regression tree split on squared error.
type Tree struct {
	nodes []node
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minSplit int
	minLeaf  int
	features []int
	maxFeat  int
	rng      *rand.Rand
	nodes    []node
	scratch  []int
}

// fitTree grows one tree on the rows listed in sample (duplicates allowed).
func fitTree(x [][]float64, y []float64, sample []int, cfg Config, rng *rand.Rand) *Tree {
	nFeatures := len(x[0])
	b := &treeBuilder{
		x:        x,
		y:        y,
		maxDepth: cfg.MaxDepth,
		minSplit: max(cfg.MinSamplesSplit, 2),
		minLeaf:  max(cfg.MinSamplesLeaf, 1),
		features: make([]int, nFeatures),
		maxFeat:  nFeatures,
		rng:      rng,
		scratch:  make([]int, len(sample)),
	}
	for i := range b.features {
		b.features[i] = i
	}
	if cfg.MaxFeatures > 0 && cfg.MaxFeatures < nFeatures {
		b.maxFeat = cfg.MaxFeatures
	}
	b.grow(sample, 0)
	return &Tree{nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{leaf: true, value: b.mean(idx)})

	if (b.maxDepth > 0 && depth >= b.maxDepth) || len(idx) < b.minSplit || b.pure(idx) {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = node{feature: feature, threshold: threshold, left: l, right: r, value: b.nodes[id].value}
	return id
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

func (b *treeBuilder) pure(idx []int) bool {
	first := b.y[idx[0]]
	for _, i := range idx[1:] {
		if b.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans every candidate feature for the threshold with the lowest
// summed squared error of the two children. Thresholds sit halfway between
// consecutive distinct values.
func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	order := b.scratch[:n]

	candidates := b.features
	if b.maxFeat < len(b.features) {
		b.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		candidates = candidates[:b.maxFeat]
	}

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}

	bestErr := 0.0
	for _, f := range candidates {
		copy(order, idx)
		slices.SortFunc(order, func(a, c int) int {
			va, vc := b.x[a][f], b.x[c][f]
			switch {
			case va < vc:
				return -1
			case va > vc:
				return 1
			default:
				return a - c
			}
		})

		var leftSum, leftSq float64
		for k := 1; k < n; k++ {
			yi := b.y[order[k-1]]
			leftSum += yi
			leftSq += yi * yi

			if k < b.minLeaf || n-k < b.minLeaf {
				continue
			}
			lo, hi := b.x[order[k-1]][f], b.x[order[k]][f]
			if lo == hi {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if !ok || sse < bestErr {
				t := lo + (hi-lo)/2
				if t >= hi {
					t = lo
				}
				feature, threshold, bestErr, ok = f, t, sse, true
			}
		}
	}
	return feature, threshold, ok
}

// Predict walks the tree for one input row.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Depth returns the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.leaf {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	if len(t.nodes) == 0 {
		return 0
	}
	return walk(0)
}
