package learned

import "math"

// logistic is a multinomial logistic regression with L2 penalty and
// class-balanced sample weights, fitted by full-batch gradient descent.
type logistic struct {
	weights [][]float64
	bias    []float64
}

type fitOptions struct {
	c         float64
	maxIter   int
	tolerance float64
}

// fitLogistic trains on sparse rows x with class indices y in [0, k).
func fitLogistic(x [][]feature, y []int, k, dims int, opts fitOptions) *logistic {
	n := len(x)
	m := &logistic{weights: make([][]float64, k), bias: make([]float64, k)}
	for c := range m.weights {
		m.weights[c] = make([]float64, dims)
	}

	counts := make([]int, k)
	for _, label := range y {
		counts[label]++
	}
	sampleWeight := make([]float64, k)
	maxWeight := 0.0
	for c, count := range counts {
		if count > 0 {
			sampleWeight[c] = float64(n) / float64(k*count)
		}
		maxWeight = max(maxWeight, sampleWeight[c])
	}

	l2 := 1 / (opts.c * float64(n))
	// Rows are unit length; the bias adds one more unit.
	step := 1 / (maxWeight + l2)

	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, dims)
	}
	gradB := make([]float64, k)
	probs := make([]float64, k)

	for iter := 0; iter < opts.maxIter; iter++ {
		for c := range gradW {
			clear(gradW[c])
		}
		clear(gradB)

		for i, row := range x {
			m.probabilities(row, probs)
			s := sampleWeight[y[i]] / float64(n)
			for c := 0; c < k; c++ {
				diff := probs[c]
				if c == y[i] {
					diff--
				}
				diff *= s
				gradB[c] += diff
				for _, f := range row {
					gradW[c][f.index] += diff * f.value
				}
			}
		}

		largest := 0.0
		for c := 0; c < k; c++ {
			for j := range gradW[c] {
				gradW[c][j] += l2 * m.weights[c][j]
				largest = max(largest, math.Abs(gradW[c][j]))
				m.weights[c][j] -= step * gradW[c][j]
			}
			largest = max(largest, math.Abs(gradB[c]))
			m.bias[c] -= step * gradB[c]
		}
		if largest < opts.tolerance {
			break
		}
	}
	return m
}

// probabilities writes the softmax class probabilities for row into out.
func (m *logistic) probabilities(row []feature, out []float64) {
	maxScore := math.Inf(-1)
	for c := range m.weights {
		score := m.bias[c]
		for _, f := range row {
			score += m.weights[c][f.index] * f.value
		}
		out[c] = score
		maxScore = max(maxScore, score)
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxScore)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}
