package regression

import (
	"math"
	"testing"
)

func linearSamples(n int, a, b float64) (x, y []float64) {
	for i := 0; i < n; i++ {
		x = append(x, float64(i))
		y = append(y, a+b*float64(i))
	}
	return x, y
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		name    string
		wantErr bool
	}{
		{"", "svr", false},
		{"SVR", "svr", false},
		{"ols", "ols", false},
		{"lstm", "", true},
	}
	for _, tt := range tests {
		m, err := New(tt.kind, DefaultParams())
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q): err = %v, wantErr %v", tt.kind, err, tt.wantErr)
			continue
		}
		if err == nil && m.Name() != tt.name {
			t.Errorf("New(%q).Name() = %q, want %q", tt.kind, m.Name(), tt.name)
		}
	}
}

func TestFit_RejectsBadInput(t *testing.T) {
	for _, m := range []Regressor{NewLinearSVR(DefaultParams()), &OLS{}} {
		if err := m.Fit(nil, nil); err == nil {
			t.Errorf("%s: expected error for empty samples", m.Name())
		}
		if err := m.Fit([]float64{1, 2}, []float64{1}); err == nil {
			t.Errorf("%s: expected error for length mismatch", m.Name())
		}
	}
}

func TestLinearSVR_FollowsLinearTrend(t *testing.T) {
	x, y := linearSamples(13, 100, 1)
	m := NewLinearSVR(DefaultParams())
	if err := m.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if s := m.Slope(); s < 0.9 || s > 1.0 {
		t.Errorf("slope = %.4f, want within [0.9, 1.0]", s)
	}
	prev := math.Inf(-1)
	for _, xi := range []float64{15, 16, 17} {
		p := m.Predict(xi)
		if p <= prev {
			t.Errorf("prediction at %v = %.3f not increasing (prev %.3f)", xi, p, prev)
		}
		if p < 114 || p > 119 {
			t.Errorf("prediction at %v = %.3f, want within [114, 119]", xi, p)
		}
		prev = p
	}
	if m.SupportVectors() == 0 {
		t.Error("expected at least one support vector")
	}
}

func TestLinearSVR_Deterministic(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	y := []float64{10, 10.4, 9.8, 11.2, 11.9, 11.5, 12.8, 13.1}
	a, b := NewLinearSVR(DefaultParams()), NewLinearSVR(DefaultParams())
	if err := a.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	for _, xi := range []float64{8, 9, 10} {
		if a.Predict(xi) != b.Predict(xi) {
			t.Errorf("Predict(%v) differs: %v vs %v", xi, a.Predict(xi), b.Predict(xi))
		}
	}
}

func TestLinearSVR_SmallCFlattens(t *testing.T) {
	x, y := linearSamples(13, 100, 1)
	m := NewLinearSVR(Params{C: 0.001, Epsilon: 0.1})
	if err := m.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if s := m.Slope(); s > 0.1 {
		t.Errorf("slope = %.4f, want heavily regularised (< 0.1)", s)
	}
}

func TestSingleSampleIsFlat(t *testing.T) {
	for _, m := range []Regressor{NewLinearSVR(DefaultParams()), &OLS{}} {
		if err := m.Fit([]float64{0}, []float64{42.5}); err != nil {
			t.Fatalf("%s: Fit: %v", m.Name(), err)
		}
		for _, xi := range []float64{1, 2, 3} {
			if got := m.Predict(xi); got != 42.5 {
				t.Errorf("%s: Predict(%v) = %v, want 42.5", m.Name(), xi, got)
			}
		}
	}
}

func TestOLS_ExactLine(t *testing.T) {
	x, y := linearSamples(10, 5, 2)
	m := &OLS{}
	if err := m.Fit(x, y); err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.Slope-2) > 1e-9 || math.Abs(m.Intercept-5) > 1e-9 {
		t.Errorf("got intercept=%v slope=%v, want 5 and 2", m.Intercept, m.Slope)
	}
	if got := m.Predict(20); math.Abs(got-45) > 1e-9 {
		t.Errorf("Predict(20) = %v, want 45", got)
	}
}
