package pp

import (
	"math"
	"sort"
	"strings"
)

const (
	PlayerWeightCoefficient = 0.965
	ClanWeightCoefficient   = 0.8
)

const accFromPpMaxIterations = 50

// StarRating is the (pass, tech, acc) difficulty triple of a map.
type StarRating struct {
	Pass float64
	Tech float64
	Acc  float64
}

// PpFromAcc computes the PP a score with the given accuracy would be worth
// on a map with the given star rating. The rhythmgamestandard mode uses a
// linear formula; golf maps grade inverted accuracy.
func PpFromAcc(acc float64, rating StarRating, modeName string, golf bool) float64 {
	if strings.EqualFold(modeName, "rhythmgamestandard") {
		return acc * rating.Pass * 55.0
	}

	if golf {
		if acc <= 0.0 || acc > 0.5 {
			return 0.0
		}
		acc = 1.0 - acc
	} else if acc <= 0.0 || acc > 1.0 {
		return 0.0
	}

	passPp := 15.2*math.Exp(math.Pow(rating.Pass, 1.0/2.62)) - 30.0
	if math.IsNaN(passPp) || math.IsInf(passPp, 0) || passPp < 0.0 {
		passPp = 0.0
	}

	var accPp float64
	if golf {
		accPp = acc * rating.Acc * 42.0
	} else {
		accPp = CurveAt(acc) * rating.Acc * 34.0
	}

	techPp := math.Exp(acc*1.9) * 1.08 * rating.Tech

	return inflate(passPp + accPp + techPp)
}

func inflate(pp float64) float64 {
	return 650.0 * math.Pow(pp, 1.3) / math.Pow(650.0, 1.3)
}

// AccFromPp inverts PpFromAcc by bisection within the bracketing curve
// segment. Returns false when the target PP is unreachable even at perfect
// accuracy or the inputs are invalid.
func AccFromPp(targetPp float64, rating StarRating, modeName string) (float64, bool) {
	if targetPp <= 0.0 {
		return 0.0, false
	}

	if strings.EqualFold(modeName, "rhythmgamestandard") {
		denom := rating.Pass * 55.0
		if denom <= 0.0 {
			return 0.0, false
		}
		acc := targetPp / denom
		if acc > 1.0 {
			return 0.0, false
		}
		return acc, true
	}

	if targetPp > PpFromAcc(1.0, rating, modeName, false) {
		return 0.0, false
	}

	low, high := 0.0, 1.0
	for i := 1; i < len(accCurve); i++ {
		if PpFromAcc(accCurve[i][0], rating, modeName, false) < targetPp {
			low = accCurve[i][0]
			high = accCurve[i-1][0]
			break
		}
	}

	mid := (low + high) / 2.0
	for i := 0; i < accFromPpMaxIterations; i++ {
		candidate := PpFromAcc(mid, rating, modeName, false)
		if round2(candidate) == round2(targetPp) {
			break
		}
		if candidate < targetPp {
			low = mid
		} else {
			high = mid
		}
		mid = (low + high) / 2.0
	}

	return mid, true
}

func round2(v float64) float64 {
	return math.Round(v*100.0) / 100.0
}

// TotalPpFromSorted computes the weighted sum of a descending PP list as if
// it started at position startIdx of the full ranking.
func TotalPpFromSorted(coefficient float64, pps []float64, startIdx int) float64 {
	total := 0.0
	for i, pp := range pps {
		total += math.Pow(coefficient, float64(startIdx+i)) * pp
	}
	return total
}

func rawPpAtIdx(coefficient float64, bottomPps []float64, idx int, expected float64) float64 {
	oldBottomPp := TotalPpFromSorted(coefficient, bottomPps, idx)
	newBottomPp := TotalPpFromSorted(coefficient, bottomPps, idx+1)

	// coeff^idx * raw = expected + oldBottomPp - newBottomPp
	return (expected + oldBottomPp - newBottomPp) / math.Pow(coefficient, float64(idx))
}

// Boundary finds the raw PP a new score must be worth so that the weighted
// total grows by expectedPp. A negative expectedPp asks which raw score
// recovers that deficit. The pps slice is sorted descending in place.
func Boundary(coefficient float64, pps []float64, expectedPp float64) float64 {
	if len(pps) == 0 {
		return 0.0
	}

	sort.Slice(pps, func(i, j int) bool { return pps[i] > pps[j] })

	for idx := len(pps) - 1; idx >= 0; idx-- {
		bottom := pps[idx:]
		bottomPp := TotalPpFromSorted(coefficient, bottom, idx)

		shifted := make([]float64, 0, len(bottom)+1)
		shifted = append(shifted, pps[idx])
		shifted = append(shifted, bottom...)
		modifiedBottomPp := TotalPpFromSorted(coefficient, shifted, idx)

		if modifiedBottomPp-bottomPp > expectedPp {
			return rawPpAtIdx(coefficient, pps[idx+1:], idx+1, expectedPp)
		}
	}

	return rawPpAtIdx(coefficient, pps, 0, expectedPp)
}
