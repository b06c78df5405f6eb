package regression

// OLS is an ordinary least squares line y = a + b*x.
type OLS struct {
	Intercept float64
	Slope     float64
}

func (m *OLS) Name() string { return "ols" }

// Fit computes the closed-form least squares line. A single sample, or samples
// sharing one x, give a flat line through the mean of y.
func (m *OLS) Fit(x, y []float64) error {
	if err := checkSamples(x, y); err != nil {
		return err
	}
	xm, ym := mean(x), mean(y)
	var sxy, sxx float64
	for i := range x {
		dx := x[i] - xm
		sxy += dx * (y[i] - ym)
		sxx += dx * dx
	}
	m.Slope = 0
	if sxx != 0 {
		m.Slope = sxy / sxx
	}
	m.Intercept = ym - m.Slope*xm
	return nil
}

func (m *OLS) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}
