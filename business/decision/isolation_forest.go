package decision

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const eulerGamma = 0.5772156649

type isoNode struct {
	split float64
	size  int
	left  *isoNode
	right *isoNode
}

// isolationForest scores one-dimensional samples; points that are isolated
// by few random splits score close to 1.
type isolationForest struct {
	trees   []*isoNode
	subsize int
}

func fitIsolationForest(xs []float64, trees, subsample int, seed int64) (*isolationForest, error) {
	n := len(xs)
	if n < 2 {
		return nil, fmt.Errorf("need at least two samples, got %d", n)
	}

	psi := min(subsample, n)
	limit := int(math.Ceil(math.Log2(float64(psi))))
	rng := rand.New(rand.NewSource(seed))

	f := &isolationForest{trees: make([]*isoNode, 0, trees), subsize: psi}
	for t := 0; t < trees; t++ {
		perm := rng.Perm(n)[:psi]
		sample := make([]float64, psi)
		for i, j := range perm {
			sample[i] = xs[j]
		}
		f.trees = append(f.trees, growIsoTree(sample, 0, limit, rng))
	}
	return f, nil
}

func growIsoTree(xs []float64, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(xs) <= 1 {
		return &isoNode{size: len(xs)}
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo == hi {
		return &isoNode{size: len(xs)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range xs {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		left:  growIsoTree(left, depth+1, limit, rng),
		right: growIsoTree(right, depth+1, limit, rng),
	}
}

func pathLength(n *isoNode, x float64) float64 {
	depth := 0.0
	for n.left != nil {
		if x < n.split {
			n = n.left
		} else {
			n = n.right
		}
		depth++
	}
	return depth + averagePath(n.size)
}

// averagePath is the expected path length of an unsuccessful BST search over
// n points.
func averagePath(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
}

func (f *isolationForest) score(x float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += pathLength(t, x)
	}
	mean := sum / float64(len(f.trees))
	return math.Pow(2, -mean/averagePath(f.subsize))
}

const (
	// robust z-score cutoff; 0.6745 rescales MAD to a normal sigma
	madCutoff = 3.5
	madScale  = 0.6745
	// tight clusters collapse MAD, so spread never drops below this share
	// of the median
	minRelSpread = 0.25
)

// outliers returns the indexes of samples scoring above
// min(ceiling, quantile(1-contamination)) that also lie more than madCutoff
// robust z-scores from the median, every sample score and the score threshold.
func (f *isolationForest) outliers(xs []float64, contamination, ceiling float64) ([]int, []float64, float64) {
	scores := make([]float64, len(xs))
	for i, x := range xs {
		scores[i] = f.score(x)
	}

	threshold := math.Min(ceiling, quantile(scores, 1-contamination))
	far := farFromMedian(xs)

	var idx []int
	for i, s := range scores {
		if s > threshold && far(xs[i]) {
			idx = append(idx, i)
		}
	}
	return idx, scores, threshold
}

func farFromMedian(xs []float64) func(float64) bool {
	med := quantile(xs, 0.5)
	dev := make([]float64, len(xs))
	for i, x := range xs {
		dev[i] = math.Abs(x - med)
	}
	spread := math.Max(quantile(dev, 0.5)/madScale, minRelSpread*math.Abs(med))

	return func(x float64) bool {
		d := math.Abs(x - med)
		if spread == 0 {
			return d > 0
		}
		return d/spread > madCutoff
	}
}

// quantile uses linear interpolation between closest ranks.
func quantile(xs []float64, q float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(s)-1)
	frac := pos - float64(lo)
	return s[lo] + frac*(s[hi]-s[lo])
}
