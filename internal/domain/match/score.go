// Package match defines the scoring policy for lost/found pair comparison:
// per-modality scores, the fixed weighting, and the two threshold policies.
package match

// Modality weights. Fixed policy constants summing to 1.0; a missing
// modality's weight is lost, never redistributed, so confidences stay
// comparable across records with and without location data.
const (
	WeightImage    = 0.5
	WeightText     = 0.3
	WeightLocation = 0.2
)

// Threshold policies. Notify is strictly above Display, so any notified
// pair would also appear in a display-mode result set.
const (
	// DisplayThreshold gates the ranked frontend list (exclusive: score > threshold).
	DisplayThreshold = 0.60
	// NotifyThreshold gates proactive notification (inclusive: score >= threshold).
	NotifyThreshold = 0.69
)

// Scores holds the per-modality similarity of one query/candidate pair.
// All three values are in [0,1]. Ephemeral: computed per comparison,
// never persisted.
type Scores struct {
	Image    float64
	Text     float64
	Location float64
}

// Confidence is the weighted combination of the modality scores,
// always recomputed from the policy weights.
func (s Scores) Confidence() float64 {
	return s.Image*WeightImage + s.Text*WeightText + s.Location*WeightLocation
}

// Displayable reports whether the pair clears the display threshold.
func (s Scores) Displayable() bool {
	return s.Confidence() > DisplayThreshold
}

// Notifiable reports whether the pair clears the notification threshold.
func (s Scores) Notifiable() bool {
	return s.Confidence() >= NotifyThreshold
}

// Result is a scored candidate: modality scores plus the combined
// confidence, tied to the candidate's identity.
type Result struct {
	CandidateID string
	Scores      Scores
	Confidence  float64
}

// NewResult builds a Result with the confidence computed from the scores.
func NewResult(candidateID string, scores Scores) Result {
	return Result{
		CandidateID: candidateID,
		Scores:      scores,
		Confidence:  scores.Confidence(),
	}
}
