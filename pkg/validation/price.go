package validation

import "math"

// scorePrice is the Price Reviewer role: fairness of declaredPrice against
// the engine's historical range for dataType. An unrecognized dataType
// scores a neutral 50 with an explicit "unknown-type" issue, per the
// tolerance contract; a recognized dataType with no recorded history yet
// also scores neutral, but without that issue.
func (e *Engine) scorePrice(dataType string, declaredPrice float64) (uint8, []string) {
	history, known := e.priceHistory[dataType]
	if !known {
		return 50, []string{"unknown-type"}
	}
	if len(history) == 0 {
		return 50, nil
	}

	mean, stddev := meanStddev(history)
	if stddev == 0 {
		if declaredPrice == mean {
			return 100, nil
		}
		stddev = mean * 0.1
		if stddev == 0 {
			stddev = 1
		}
	}

	deviations := math.Abs(declaredPrice-mean) / stddev
	score := 100 - deviations*25

	var issues []string
	if deviations > 2 {
		issues = append(issues, "declared price is far outside the historical range")
	}
	return clampScore(score), issues
}

func meanStddev(samples []float64) (mean, stddev float64) {
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	mean = sum / float64(len(samples))

	variance := 0.0
	for _, s := range samples {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(samples))
	return mean, math.Sqrt(variance)
}
