package ranking

import "fmt"

// minMaxScaler maps each feature onto [0,1] using the range seen at fit time.
type minMaxScaler struct {
	min []float64
	max []float64
}

func fitMinMax(X [][]float64) (*minMaxScaler, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("no rows to fit scaler")
	}
	p := len(X[0])
	s := &minMaxScaler{
		min: append([]float64(nil), X[0]...),
		max: append([]float64(nil), X[0]...),
	}
	for _, row := range X[1:] {
		if len(row) != p {
			return nil, fmt.Errorf("ragged feature matrix")
		}
		for j, v := range row {
			if v < s.min[j] {
				s.min[j] = v
			}
			if v > s.max[j] {
				s.max[j] = v
			}
		}
	}
	return s, nil
}

// transform scales x; values outside the fitted range are clipped, a constant
// feature scales to 0.
func (s *minMaxScaler) transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		span := s.max[j] - s.min[j]
		if span == 0 {
			continue
		}
		z := (v - s.min[j]) / span
		switch {
		case z < 0:
			z = 0
		case z > 1:
			z = 1
		}
		out[j] = z
	}
	return out
}

func (s *minMaxScaler) transformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.transform(row)
	}
	return out
}
