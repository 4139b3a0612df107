package delta

import (
	"math"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// decimalCtx rounds half away from zero. apd calls that mode "half up".
var decimalCtx = func() apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return *c
}()

// exactDigits is enough fractional digits to tell a float64 near a
// half-cent from the half-cent itself.
const exactDigits = 30

// ComputeDeltas walks a group sorted most recent first. Element i gets
// Difference(value[i], value[i+1]); the last (oldest) element gets nil.
// Total over any sorted group.
func ComputeDeltas(sorted []Observation) []OrderedObservation {
	out := make([]OrderedObservation, len(sorted))
	for i, obs := range sorted {
		out[i] = OrderedObservation{Observation: obs}
		if i == len(sorted)-1 {
			break
		}
		d := Difference(obs.Value, sorted[i+1].Value)
		out[i].Delta = &d
	}
	return out
}

// Difference returns newer-older rounded to two decimal places. The
// subtraction is binary, so 1.015-1 is 0.01499999... and rounds to 0.01.
func Difference(newer, older float64) float64 {
	return Round2(newer - older)
}

// Round2 rounds the exact binary value of x to two decimal places, half
// away from zero. 2.675 is stored as 2.67499999... and rounds to 2.67;
// 0.125 is exact and rounds to 0.13. NaN and Inf are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	var d apd.Decimal
	if _, _, err := d.SetString(strconv.FormatFloat(x, 'f', exactDigits, 64)); err != nil {
		return normalizeZero(math.Round(x*100) / 100)
	}
	var q apd.Decimal
	if _, err := decimalCtx.Quantize(&q, &d, -2); err != nil {
		// Beyond 34 significant digits; hundredths are noise at that size.
		return normalizeZero(math.Round(x*100) / 100)
	}
	f, err := q.Float64()
	if err != nil {
		return normalizeZero(math.Round(x*100) / 100)
	}
	return normalizeZero(f)
}

// normalizeZero turns -0 into 0.
func normalizeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}
