package engine

// MinPairsForEffect is the fewest complete pairs a median split will run on
const MinPairsForEffect = 4

// MedianSplitDifference estimates a clinical effect size: outcome values are
// split by whether their paired driver value sits above the driver median,
// and the high-group mean minus the low-group mean is returned. ok=false
// when too few complete pairs survive or the split leaves a group empty
// (a constant driver cannot be split).
func MedianSplitDifference(driver, outcome []float64) (float64, bool) {
	ds, os := pairwiseComplete(driver, outcome)
	if len(ds) < MinPairsForEffect {
		return 0, false
	}

	median, ok := Median(ds)
	if !ok {
		return 0, false
	}

	var highSum, lowSum float64
	var highN, lowN int
	for i, d := range ds {
		if d > median {
			highSum += os[i]
			highN++
		} else {
			lowSum += os[i]
			lowN++
		}
	}
	if highN == 0 || lowN == 0 {
		return 0, false
	}
	return highSum/float64(highN) - lowSum/float64(lowN), true
}
