package geometry

import (
	"gonum.org/v1/gonum/mat"
)

// The global planner's path arrives noisy; it is denoised with a
// Savitzky-Golay filter of fixed window and order before any local goal or
// costmap work happens.
const (
	SmoothingWindow = 19
	SmoothingOrder  = 3
)

// SmoothPath denoises a path by filtering its x and y sequences
// independently. Paths shorter than the filter window are returned as an
// unmodified copy: the filter is inapplicable and the raw path is the
// deterministic fallback. Point count and order are always preserved.
func SmoothPath(path []Point) []Point {
	out := make([]Point, len(path))
	copy(out, path)
	if len(path) < SmoothingWindow {
		return out
	}
	xs := make([]float64, len(path))
	ys := make([]float64, len(path))
	for i, p := range path {
		xs[i] = p.X
		ys[i] = p.Y
	}
	xhat := savitzkyGolay(xs, SmoothingWindow, SmoothingOrder)
	yhat := savitzkyGolay(ys, SmoothingWindow, SmoothingOrder)
	for i := range out {
		out[i] = Point{X: xhat[i], Y: yhat[i]}
	}
	return out
}

// savitzkyGolay smooths ys with a centered least-squares polynomial filter.
// Interior samples use the precomputed center-evaluation convolution
// weights; the half-window at each end is filled by fitting a single
// polynomial to the first (or last) full window and evaluating it at the
// edge offsets. Callers guarantee len(ys) >= window.
func savitzkyGolay(ys []float64, window, order int) []float64 {
	n := len(ys)
	half := window / 2
	w := savgolWeights(window, order)

	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		var s float64
		for k := 0; k < window; k++ {
			s += w[k] * ys[i-half+k]
		}
		out[i] = s
	}

	head := fitPolynomial(ys[:window], order)
	for i := 0; i < half; i++ {
		out[i] = evalPolynomial(head, float64(i))
	}
	tail := fitPolynomial(ys[n-window:], order)
	for i := n - half; i < n; i++ {
		out[i] = evalPolynomial(tail, float64(i-(n-window)))
	}
	return out
}

// savgolWeights computes the convolution weights that evaluate the
// least-squares polynomial fit at the window center. With design matrix A
// over offsets -half..half, the weight vector is the center row of the
// pseudoinverse: w = A (A^T A)^-1 e0.
func savgolWeights(window, order int) []float64 {
	half := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		v := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, v)
			v *= x
		}
	}
	var ata mat.Dense
	ata.Mul(a.T(), a)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		// The normal matrix for a window strictly larger than the
		// polynomial order is nonsingular.
		panic(err)
	}
	w := make([]float64, window)
	for i := 0; i < window; i++ {
		var s float64
		for j := 0; j <= order; j++ {
			s += a.At(i, j) * z.AtVec(j)
		}
		w[i] = s
	}
	return w
}

// fitPolynomial least-squares fits a polynomial of the given order to ys
// sampled at 0, 1, ..., len(ys)-1 and returns its coefficients, lowest
// degree first.
func fitPolynomial(ys []float64, order int) []float64 {
	n := len(ys)
	b := mat.NewDense(n, order+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j <= order; j++ {
			b.Set(i, j, v)
			v *= float64(i)
		}
	}
	var c mat.VecDense
	if err := c.SolveVec(b, mat.NewVecDense(n, ys)); err != nil {
		panic(err)
	}
	coeffs := make([]float64, order+1)
	for j := 0; j <= order; j++ {
		coeffs[j] = c.AtVec(j)
	}
	return coeffs
}

func evalPolynomial(coeffs []float64, x float64) float64 {
	var s float64
	for j := len(coeffs) - 1; j >= 0; j-- {
		s = s*x + coeffs[j]
	}
	return s
}
