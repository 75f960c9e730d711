package path

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
)

// cauchyScale controls how aggressively the robust loss discounts outlier
// focus points.
const cauchyScale = 0.5

// PolynomialSolver fits one 4th-degree polynomial per cropped axis through
// the observed focus points, batch-style, with a Cauchy-robust least squares
// objective. It is stateless across scenes; continuity comes from the prior
// focus point frames handed in by the caller.
type PolynomialSolver struct{}

// NewPolynomialSolver returns a batch regression path solver.
func NewPolynomialSolver() *PolynomialSolver {
	return &PolynomialSolver{}
}

type observation struct {
	t      float64
	value  float64
	weight float64
}

// ComputeCameraPath implements Solver. Prior frames occupy negative frame
// indices so the fitted curve is continuous across a forced flush boundary.
func (s *PolynomialSolver) ComputeCameraPath(focus, prior []motion.FocusPointFrame, originalWidth, originalHeight, outputWidth, outputHeight int) ([]Transform, error) {
	if err := validateDims(originalWidth, originalHeight, outputWidth, outputHeight); err != nil {
		return nil, err
	}
	total := len(prior) + len(focus)
	if total == 0 {
		return nil, ErrNoFocusPoints
	}

	// Frame index -> [~0, 1] for numeric conditioning; prior frames land
	// below zero.
	scale := 1.0 / float64(max(total-1, 1))
	index := func(i int) float64 {
		return float64(i-len(prior)) * scale
	}

	all := make([]motion.FocusPointFrame, 0, total)
	all = append(all, prior...)
	all = append(all, focus...)

	var xObs, yObs []observation
	for i, frame := range all {
		for _, p := range frame.Points {
			w := p.Weight
			if w <= 0 {
				w = 1e-6
			}
			xObs = append(xObs, observation{t: index(i), value: p.NormX, weight: w})
			yObs = append(yObs, observation{t: index(i), value: p.NormY, weight: w})
		}
	}
	if len(xObs) == 0 {
		return nil, ErrNoFocusPoints
	}

	xCoeffs, err := fitAxis(xObs, originalWidth != outputWidth)
	if err != nil {
		return nil, fmt.Errorf("path: fitting x axis: %w", err)
	}
	yCoeffs, err := fitAxis(yObs, originalHeight != outputHeight)
	if err != nil {
		return nil, fmt.Errorf("path: fitting y axis: %w", err)
	}

	maxDX := maxDelta(originalWidth, outputWidth)
	maxDY := maxDelta(originalHeight, outputHeight)
	transforms := make([]Transform, total)
	for i := range all {
		t := index(i)
		var dx, dy float64
		if xCoeffs != nil {
			dx = (evalPoly(xCoeffs, t) - 0.5) * float64(originalWidth)
			dx = geometry.Clamp(dx, -maxDX, maxDX)
		}
		if yCoeffs != nil {
			dy = (evalPoly(yCoeffs, t) - 0.5) * float64(originalHeight)
			dy = geometry.Clamp(dy, -maxDY, maxDY)
		}
		transforms[i] = Translation(dx, dy)
	}
	return transforms, nil
}

// fitAxis solves the robust least squares problem for one axis. Axes that
// need no cropping return nil coefficients (the camera stays centered).
func fitAxis(obs []observation, needed bool) ([]float64, error) {
	if !needed {
		return nil, nil
	}

	// Model: value = k + a*t + b*t^2 + c*t^3 + d*t^4. Start from the
	// weighted mean as a flat curve.
	var mean, totalWeight float64
	for _, o := range obs {
		mean += o.value * o.weight
		totalWeight += o.weight
	}
	mean /= totalWeight
	initial := []float64{mean, 0, 0, 0, 0}

	problem := optimize.Problem{
		Func: func(coeffs []float64) float64 {
			var loss float64
			for _, o := range obs {
				r := evalPoly(coeffs, o.t) - o.value
				s := r * r / (cauchyScale * cauchyScale)
				loss += o.weight * math.Log1p(s)
			}
			return loss
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 50},
	}
	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, err
	}
	return result.X, nil
}

func evalPoly(coeffs []float64, t float64) float64 {
	// Horner evaluation of k + a*t + b*t^2 + c*t^3 + d*t^4.
	v := coeffs[4]
	for i := 3; i >= 0; i-- {
		v = v*t + coeffs[i]
	}
	return v
}
