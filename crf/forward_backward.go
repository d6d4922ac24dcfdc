package crf

import "math"

// Marginals runs the scaled forward-backward algorithm and returns the
// [T][L] posterior label probabilities P(y_t=j|x) together with log Z.
func Marginals(stateScores, transScores [][]float64) ([][]float64, float64) {
	T := len(stateScores)
	if T == 0 {
		return nil, 0
	}
	L := len(stateScores[0])

	// Scores are shifted by the row maximum before exponentiation; the shift
	// is added back into log Z.
	shift := 0.0
	expState := make([][]float64, T)
	for t := range T {
		rowMax := math.Inf(-1)
		for _, s := range stateScores[t] {
			rowMax = math.Max(rowMax, s)
		}
		shift += rowMax
		expState[t] = make([]float64, L)
		for y := range L {
			expState[t][y] = math.Exp(stateScores[t][y] - rowMax)
		}
	}
	expTrans := make([][]float64, L)
	for i := range L {
		expTrans[i] = make([]float64, L)
		for j := range L {
			expTrans[i][j] = math.Exp(transScores[i][j])
		}
	}

	alpha := make([][]float64, T)
	scale := make([]float64, T)
	for t := range T {
		alpha[t] = make([]float64, L)
		sum := 0.0
		for y := range L {
			if t == 0 {
				alpha[t][y] = expState[t][y]
			} else {
				var s float64
				for yp := range L {
					s += alpha[t-1][yp] * expTrans[yp][y]
				}
				alpha[t][y] = s * expState[t][y]
			}
			sum += alpha[t][y]
		}
		scale[t] = 1.0
		if sum > 0 {
			scale[t] = 1.0 / sum
		}
		for y := range L {
			alpha[t][y] *= scale[t]
		}
	}

	beta := make([][]float64, T)
	beta[T-1] = make([]float64, L)
	for y := range L {
		beta[T-1][y] = scale[T-1]
	}
	for t := T - 2; t >= 0; t-- {
		beta[t] = make([]float64, L)
		for y := range L {
			var s float64
			for yn := range L {
				s += expTrans[y][yn] * expState[t+1][yn] * beta[t+1][yn]
			}
			beta[t][y] = s * scale[t]
		}
	}

	logZ := shift
	for t := range T {
		logZ -= math.Log(scale[t])
	}

	marginals := make([][]float64, T)
	for t := range T {
		marginals[t] = make([]float64, L)
		for y := range L {
			marginals[t][y] = alpha[t][y] * beta[t][y] / scale[t]
		}
	}
	return marginals, logZ
}
