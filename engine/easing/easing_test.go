package easing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsHitEndpointsExactly(t *testing.T) {
	for name, c := range map[string]Curve{"standard": Standard, "dramatic": Dramatic} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0.0, c.Evaluate(0))
			assert.Equal(t, 1.0, c.Evaluate(1))
			assert.Equal(t, 0.0, c.Evaluate(-0.5))
			assert.Equal(t, 1.0, c.Evaluate(1.5))
		})
	}
}

func TestPresetsAreMonotonic(t *testing.T) {
	for name, c := range map[string]Curve{"standard": Standard, "dramatic": Dramatic} {
		t.Run(name, func(t *testing.T) {
			prev := 0.0
			for i := 1; i <= 1000; i++ {
				v := c.Evaluate(float64(i) / 1000)
				require.GreaterOrEqual(t, v, prev, "t=%v", float64(i)/1000)
				require.LessOrEqual(t, v, 1.0)
				prev = v
			}
		})
	}
}

func TestDramaticStartsSlowerThanStandard(t *testing.T) {
	assert.Less(t, Dramatic.Evaluate(0.15), Standard.Evaluate(0.15))
	assert.Greater(t, Dramatic.Evaluate(0.6), 0.5)
}

func TestLinearCurveIsIdentity(t *testing.T) {
	for _, v := range []float64{0.1, 0.37, 0.5, 0.92} {
		assert.Equal(t, v, Evaluate(v, 0.25, 0.25, 0.75, 0.75))
	}
}

func TestEvaluateMatchesCurveX(t *testing.T) {
	c := Curve{X1: 0.42, Y1: 0, X2: 0.58, Y2: 1}
	for _, x := range []float64{0.05, 0.3, 0.5, 0.8} {
		u := c.solve(x)
		assert.InDelta(t, x, sample(c.X1, c.X2, u), 1e-6)
	}
	assert.InDelta(t, 0.5, c.Evaluate(0.5), 1e-6)
}
