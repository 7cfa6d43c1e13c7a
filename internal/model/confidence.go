package model

// Confidence is the coarse quality label computed for a completed job from
// its final competitor, insight, and angle counts.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ComputeConfidence derives the label for a completed job.
// high requires ≥80% insight coverage, ≥3 angles, and ≥3 competitors;
// medium requires ≥50%, ≥2, and ≥2; everything else is low.
func ComputeConfidence(competitors, withInsights, angles int) Confidence {
	if competitors == 0 {
		return ConfidenceLow
	}
	coverage := float64(withInsights) / float64(competitors)
	switch {
	case coverage >= 0.8 && angles >= 3 && competitors >= 3:
		return ConfidenceHigh
	case coverage >= 0.5 && angles >= 2 && competitors >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
