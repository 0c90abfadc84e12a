// Package easing evaluates CSS-style cubic-bezier timing curves.
package easing

const (
	newtonIterations = 6
	newtonMinSlope   = 1e-6
	newtonTolerance  = 1e-7
	bisectIterations = 40
	bisectTolerance  = 1e-7
)

// Curve is a cubic Bézier timing curve anchored at (0,0) and (1,1).
type Curve struct {
	X1, Y1, X2, Y2 float64
}

var (
	// Standard is the gentle ease used when returning to the gallery.
	Standard = Curve{X1: 0.65, Y1: 0.05, X2: 0.36, Y2: 1}

	// Dramatic front-loads acceleration and is used when flying into a project.
	Dramatic = Curve{X1: 0.77, Y1: 0, X2: 0.18, Y2: 1}
)

// Evaluate maps progress t in [0, 1] to eased progress.
// Inputs outside the range are clamped, so Evaluate(0) == 0 and Evaluate(1) == 1 exactly.
//
// Parameters:
//   - t: linear progress
//
// Returns:
//   - float64: the eased progress
func (c Curve) Evaluate(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if c.X1 == c.Y1 && c.X2 == c.Y2 {
		return t
	}
	return sample(c.Y1, c.Y2, c.solve(t))
}

// Evaluate is the free-function form of Curve.Evaluate.
func Evaluate(t float64, x1, y1, x2, y2 float64) float64 {
	return Curve{X1: x1, Y1: y1, X2: x2, Y2: y2}.Evaluate(t)
}

// solve finds the curve parameter whose x coordinate equals x.
// Newton-Raphson converges in a few steps for well-behaved curves; bisection covers flat slopes.
func (c Curve) solve(x float64) float64 {
	u := x
	for range newtonIterations {
		err := sample(c.X1, c.X2, u) - x
		if abs(err) < newtonTolerance {
			return u
		}
		slope := slope(c.X1, c.X2, u)
		if abs(slope) < newtonMinSlope {
			break
		}
		u -= err / slope
	}

	lo, hi := 0.0, 1.0
	u = x
	for range bisectIterations {
		v := sample(c.X1, c.X2, u)
		if abs(v-x) < bisectTolerance {
			return u
		}
		if x > v {
			lo = u
		} else {
			hi = u
		}
		u = (lo + hi) / 2
	}
	return u
}

// sample evaluates one Bézier coordinate with endpoints 0 and 1 at parameter u.
func sample(p1, p2, u float64) float64 {
	a := 1 - 3*p2 + 3*p1
	b := 3*p2 - 6*p1
	cc := 3 * p1
	return ((a*u+b)*u + cc) * u
}

func slope(p1, p2, u float64) float64 {
	a := 1 - 3*p2 + 3*p1
	b := 3*p2 - 6*p1
	cc := 3 * p1
	return 3*a*u*u + 2*b*u + cc
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
