package ranking

import (
	"fmt"
	"math/rand"
	"sort"
)

type forestParams struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// randomForest is a bagged ensemble of CART regression trees. Every split
// considers all features; randomness comes from the bootstrap samples only.
type randomForest struct {
	trees []*treeNode
}

func fitForest(X [][]float64, y []float64, p forestParams) (*randomForest, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("invalid training set: %d rows, %d targets", n, len(y))
	}
	if p.Trees <= 0 {
		return nil, fmt.Errorf("invalid tree count %d", p.Trees)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	f := &randomForest{trees: make([]*treeNode, 0, p.Trees)}

	for t := 0; t < p.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, growTree(X, y, idx, 0, p))
	}
	return f, nil
}

func (f *randomForest) predict(x []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

func growTree(X [][]float64, y []float64, idx []int, depth int, p forestParams) *treeNode {
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))

	if depth >= p.MaxDepth || len(idx) < 2*p.MinLeaf {
		return &treeNode{leaf: true, value: mean}
	}

	feature, threshold, ok := bestSplit(X, y, idx, p.MinLeaf)
	if !ok {
		return &treeNode{leaf: true, value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(X, y, left, depth+1, p),
		right:     growTree(X, y, right, depth+1, p),
	}
}

// bestSplit finds the feature/threshold minimizing the children's summed
// squared error, honoring the minimum leaf size.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)

	var totalSum, totalSq float64
	for _, i := range idx {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := parentSSE - 1e-9

	sorted := make([]int, n)
	for f := range X[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return X[sorted[a]][f] < X[sorted[b]][f]
		})

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := y[sorted[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			cur, next := X[sorted[k]][f], X[sorted[k+1]][f]
			if cur == next {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := leftSq - leftSum*leftSum/float64(nl) + rightSq - rightSum*rightSum/float64(nr)
			if sse < bestSSE {
				bestSSE = sse
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}
