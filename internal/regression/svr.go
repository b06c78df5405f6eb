package regression

import "math"

// LinearSVR is an epsilon-insensitive support vector regressor with a linear
// kernel. Samples are centred before fitting so the intercept is not
// regularised; the slope is found by dual coordinate descent, which visits
// samples in a fixed order and is therefore deterministic.
type LinearSVR struct {
	C       float64
	Epsilon float64
	Tol     float64
	MaxIter int

	slope     float64
	xMean     float64
	yMean     float64
	iters     int
	supportNo int
}

// NewLinearSVR creates an unfitted LinearSVR, filling unset params with defaults.
func NewLinearSVR(p Params) *LinearSVR {
	d := DefaultParams()
	if p.C <= 0 {
		p.C = d.C
	}
	if p.Epsilon < 0 {
		p.Epsilon = d.Epsilon
	}
	if p.Tol <= 0 {
		p.Tol = d.Tol
	}
	if p.MaxIter <= 0 {
		p.MaxIter = d.MaxIter
	}
	return &LinearSVR{C: p.C, Epsilon: p.Epsilon, Tol: p.Tol, MaxIter: p.MaxIter}
}

func (m *LinearSVR) Name() string { return "svr" }

// Fit solves
//
//	min_b  0.5*b'Qb - y'b + eps*|b|_1   s.t. -C <= b_i <= C
//
// with Q_ij = x_i*x_j on centred data, and keeps w = sum(b_i*x_i).
func (m *LinearSVR) Fit(x, y []float64) error {
	if err := checkSamples(x, y); err != nil {
		return err
	}
	m.xMean, m.yMean = mean(x), mean(y)

	n := len(x)
	xc := make([]float64, n)
	yc := make([]float64, n)
	for i := range x {
		xc[i] = x[i] - m.xMean
		yc[i] = y[i] - m.yMean
	}

	beta := make([]float64, n)
	w := 0.0
	m.iters = 0
	for m.iters < m.MaxIter {
		m.iters++
		maxStep := 0.0
		for i := 0; i < n; i++ {
			q := xc[i] * xc[i]
			if q == 0 {
				continue
			}
			g := w*xc[i] - yc[i]
			gp, gn := g+m.Epsilon, g-m.Epsilon

			var d float64
			switch {
			case gp < q*beta[i]:
				d = -gp / q
			case gn > q*beta[i]:
				d = -gn / q
			default:
				d = -beta[i]
			}

			nb := math.Max(-m.C, math.Min(m.C, beta[i]+d))
			d = nb - beta[i]
			if d == 0 {
				continue
			}
			beta[i] = nb
			w += d * xc[i]
			if step := math.Abs(d * xc[i]); step > maxStep {
				maxStep = step
			}
		}
		if maxStep < m.Tol {
			break
		}
	}

	m.slope = w
	m.supportNo = 0
	for _, b := range beta {
		if b != 0 {
			m.supportNo++
		}
	}
	return nil
}

// Predict returns yMean + slope*(x - xMean).
func (m *LinearSVR) Predict(x float64) float64 {
	return m.yMean + m.slope*(x-m.xMean)
}

// Slope returns the fitted coefficient on the centred feature.
func (m *LinearSVR) Slope() float64 { return m.slope }

// SupportVectors returns how many samples ended with a non-zero dual weight.
func (m *LinearSVR) SupportVectors() int { return m.supportNo }

// Iterations returns the number of coordinate-descent epochs of the last fit.
func (m *LinearSVR) Iterations() int { return m.iters }
