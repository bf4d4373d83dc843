package calibration

import "math"

// Verdict classifies a measurement pair against the tolerance.
type Verdict string

const (
	// VerdictOK means the difference is within Tolerance.OK.
	VerdictOK Verdict = "OK"
	// VerdictSuspicious means the difference exceeds OK but not Suspicious.
	// It is only produced when the third tier is enabled.
	VerdictSuspicious Verdict = "SUSPICIOUS"
	// VerdictOutOfTolerance means the difference exceeds every threshold.
	VerdictOutOfTolerance Verdict = "OUT_OF_TOLERANCE"
)

// Tolerance holds the verdict thresholds in millimetres.
//
// OK must not be negative. Suspicious is the reserved second threshold:
// zero (or anything not above OK) disables the SUSPICIOUS tier and the
// verdict is strictly two-way, OK or OUT_OF_TOLERANCE.
type Tolerance struct {
	OK         float64
	Suspicious float64
}

// Evaluation is the outcome of comparing two distances.
type Evaluation struct {
	// Difference is totalStation - interferometer, unrounded.
	Difference float64
	Verdict    Verdict
}

// ThreeTier reports whether the SUSPICIOUS tier is active.
func (t Tolerance) ThreeTier() bool {
	return t.Suspicious > t.OK
}

// Evaluate compares the total station distance with the interferometer one.
// Boundaries are inclusive.
func (t Tolerance) Evaluate(totalStation, interferometer float64) Evaluation {
	diff := totalStation - interferometer
	magnitude := math.Abs(diff)

	verdict := VerdictOutOfTolerance

	switch {
	case magnitude <= t.OK:
		verdict = VerdictOK
	case t.ThreeTier() && magnitude <= t.Suspicious:
		verdict = VerdictSuspicious
	}

	return Evaluation{
		Difference: diff,
		Verdict:    verdict,
	}
}
