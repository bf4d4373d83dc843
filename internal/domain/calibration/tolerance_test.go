package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEvaluate_Scenarios covers the reference pairs with tol_ok = 0.5.
func TestEvaluate_Scenarios(t *testing.T) {
	t.Parallel()

	tol := Tolerance{OK: 0.5}

	got := tol.Evaluate(100.3, 100.0)
	require.InDelta(t, 0.3, got.Difference, 1e-9)
	require.Equal(t, VerdictOK, got.Verdict)

	got = tol.Evaluate(100.3, 99.0)
	require.InDelta(t, 1.3, got.Difference, 1e-9)
	require.Equal(t, VerdictOutOfTolerance, got.Verdict)
}

// TestEvaluate_DifferenceIsExact checks difference == a - b with no rounding and sign kept.
func TestEvaluate_DifferenceIsExact(t *testing.T) {
	t.Parallel()

	tol := Tolerance{OK: 0.5}
	pairs := [][2]float64{
		{100.3, 100.0},
		{0.1, 0.2},
		{-5.25, 7.125},
		{1e9, 1e-9},
		{0, 0},
		{math.MaxFloat64 / 2, -math.MaxFloat64 / 4},
	}

	for _, p := range pairs {
		a, b := p[0], p[1]

		require.Equal(t, a-b, tol.Evaluate(a, b).Difference) //nolint:testifylint // Exact equality is the point.
		require.Equal(t, tol.Evaluate(a, b).Verdict, tol.Evaluate(b, a).Verdict)
	}
}

// TestEvaluate_BoundaryIsInclusive checks |d| == tol_ok is OK.
func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	tol := Tolerance{OK: 0.5}

	require.Equal(t, VerdictOK, tol.Evaluate(10.5, 10).Verdict)
	require.Equal(t, VerdictOK, tol.Evaluate(10, 10.5).Verdict)
	require.Equal(t, VerdictOutOfTolerance, tol.Evaluate(10.5000001, 10).Verdict)

	zero := Tolerance{}
	require.Equal(t, VerdictOK, zero.Evaluate(3, 3).Verdict)
	require.Equal(t, VerdictOutOfTolerance, zero.Evaluate(3, 3.001).Verdict)
}

// TestEvaluate_ThreeTier checks the optional SUSPICIOUS band.
func TestEvaluate_ThreeTier(t *testing.T) {
	t.Parallel()

	tol := Tolerance{OK: 0.5, Suspicious: 1.0}
	require.True(t, tol.ThreeTier())

	require.Equal(t, VerdictOK, tol.Evaluate(100.5, 100).Verdict)
	require.Equal(t, VerdictSuspicious, tol.Evaluate(100.75, 100).Verdict)
	require.Equal(t, VerdictSuspicious, tol.Evaluate(99, 100).Verdict)
	require.Equal(t, VerdictOutOfTolerance, tol.Evaluate(101.25, 100).Verdict)

	// A suspicious threshold at or below OK leaves the verdict two-way.
	flat := Tolerance{OK: 0.5, Suspicious: 0.5}
	require.False(t, flat.ThreeTier())
	require.Equal(t, VerdictOutOfTolerance, flat.Evaluate(100.75, 100).Verdict)
}
