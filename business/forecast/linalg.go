package forecast

import (
	"fmt"
	"math"
)

// solve returns x with A x = b using Gauss-Jordan elimination with partial
// pivoting. A is square and is not modified.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	if n == 0 || len(b) != n {
		return nil, fmt.Errorf("dimension mismatch: %dx? and %d", n, len(b))
	}

	// Build augmented [A | b]
	aug := make([][]float64, n)
	for i := range n {
		if len(A[i]) != n {
			return nil, fmt.Errorf("matrix is not square")
		}
		aug[i] = make([]float64, n+1)
		copy(aug[i], A[i])
		aug[i][n] = b[i]
	}

	for col := range n {
		// partial pivot
		best := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[best][col]) {
				best = r
			}
		}
		if math.Abs(aug[best][col]) < 1e-12 {
			return nil, fmt.Errorf("matrix is singular")
		}
		aug[col], aug[best] = aug[best], aug[col]

		pivot := aug[col][col]
		for j := col; j <= n; j++ {
			aug[col][j] /= pivot
		}

		for i := range n {
			if i == col {
				continue
			}
			factor := aug[i][col]
			if factor == 0 {
				continue
			}
			for j := col; j <= n; j++ {
				aug[i][j] -= factor * aug[col][j]
			}
		}
	}

	x := make([]float64, n)
	for i := range n {
		x[i] = aug[i][n]
	}
	return x, nil
}

// ridge solves min ||y - X beta||^2 + lambda ||beta||^2.
func ridge(X [][]float64, y []float64, lambda float64) ([]float64, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("no observations")
	}
	p := len(X[0])

	XtX := make([][]float64, p)
	for i := range p {
		XtX[i] = make([]float64, p)
	}
	Xty := make([]float64, p)

	for r, row := range X {
		for i := range p {
			Xty[i] += row[i] * y[r]
			for j := i; j < p; j++ {
				XtX[i][j] += row[i] * row[j]
			}
		}
	}
	for i := range p {
		for j := 0; j < i; j++ {
			XtX[i][j] = XtX[j][i]
		}
		XtX[i][i] += lambda
	}

	return solve(XtX, Xty)
}

// linearFit returns intercept and slope of the least-squares line through (x, y).
func linearFit(x, y []float64) (float64, float64, error) {
	n := float64(len(x))
	if len(x) < 2 || len(x) != len(y) {
		return 0, 0, fmt.Errorf("need at least two points")
	}

	var sx, sy float64
	for i := range x {
		sx += x[i]
		sy += y[i]
	}
	mx, my := sx/n, sy/n

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx == 0 {
		return 0, 0, fmt.Errorf("degenerate x range")
	}

	slope := sxy / sxx
	return my - slope*mx, slope, nil
}
