// Package domain contains pure, dependency-free domain models and types
// for the ensemble prediction aggregator.
package domain

// SentinelLabel is the placeholder outcome label used in breakdowns for
// model slots that did not supply a prediction.
const SentinelLabel = "N/A"

// ModelSlot identifies one of the three fixed model inputs that may or
// may not supply a prediction for a given match.
type ModelSlot string

// The three model slots, in their canonical iteration order.
const (
	// SlotFullTime is the full-time outcome model.
	SlotFullTime ModelSlot = "full_time"

	// SlotHalfTime is the half-time outcome model.
	SlotHalfTime ModelSlot = "half_time"

	// SlotPattern is the pattern model.
	SlotPattern ModelSlot = "pattern"
)

// String returns the slot identifier as a string.
func (s ModelSlot) String() string { return string(s) }

// Slots returns the model slots in their canonical order.
// Every component that iterates slots must use this order so that label
// grouping and tie resolution stay deterministic across runs.
func Slots() []ModelSlot {
	return []ModelSlot{SlotFullTime, SlotHalfTime, SlotPattern}
}

// BaselineWeights returns the authoritative relative importance of each
// model when all three slots supply a prediction. The values are fixed
// and the returned struct is a fresh copy on every call.
func BaselineWeights() WeightSet {
	return WeightSet{FullTime: 0.5, HalfTime: 0.3, Pattern: 0.2}
}

// ModelPrediction is a single model's answer: an opaque outcome label and
// a confidence in [0, 1]. Labels are compared by exact string equality;
// no trimming or case folding is ever applied.
type ModelPrediction struct {
	// Label is the predicted outcome token (e.g. an outcome category).
	Label string `json:"prediction"`

	// Confidence is the model's certainty in [0, 1].
	Confidence float64 `json:"confidence"`
}

// NoPrediction returns the sentinel breakdown entry used for an absent slot.
func NoPrediction() ModelPrediction {
	return ModelPrediction{Label: SentinelLabel, Confidence: 0}
}

// EnsembleInput carries up to three optional named model predictions.
// A nil slot means that model did not answer. At least one slot must be
// present for the input to be valid.
type EnsembleInput struct {
	FullTime *ModelPrediction `json:"full_time_prediction,omitempty"`
	HalfTime *ModelPrediction `json:"half_time_prediction,omitempty"`
	Pattern  *ModelPrediction `json:"pattern_prediction,omitempty"`
}

// At returns the prediction supplied for the given slot, or nil when the
// slot is absent or the slot identifier is unknown.
func (in EnsembleInput) At(slot ModelSlot) *ModelPrediction {
	switch slot {
	case SlotFullTime:
		return in.FullTime
	case SlotHalfTime:
		return in.HalfTime
	case SlotPattern:
		return in.Pattern
	default:
		return nil
	}
}

// Present returns the slots that supplied a prediction, in canonical order.
func (in EnsembleInput) Present() []ModelSlot {
	present := make([]ModelSlot, 0, 3)
	for _, slot := range Slots() {
		if in.At(slot) != nil {
			present = append(present, slot)
		}
	}
	return present
}

// NumPresent returns how many slots supplied a prediction.
func (in EnsembleInput) NumPresent() int { return len(in.Present()) }

// WeightSet holds the effective per-slot weights used for one aggregation.
// All components are non-negative and, for valid input, sum to 1.0 within
// floating tolerance. A slot's weight is zero exactly when that slot was
// absent from the input.
type WeightSet struct {
	FullTime float64 `json:"ft"`
	HalfTime float64 `json:"ht"`
	Pattern  float64 `json:"pt"`
}

// At returns the weight assigned to the given slot.
func (w WeightSet) At(slot ModelSlot) float64 {
	switch slot {
	case SlotFullTime:
		return w.FullTime
	case SlotHalfTime:
		return w.HalfTime
	case SlotPattern:
		return w.Pattern
	default:
		return 0
	}
}

// Sum returns the total of the three weight components.
func (w WeightSet) Sum() float64 { return w.FullTime + w.HalfTime + w.Pattern }

// Contribution is one present slot's weighted vote: the unit of comparison
// for both aggregation and conflict detection.
type Contribution struct {
	// Slot identifies which model produced this vote.
	Slot ModelSlot `json:"slot"`

	// Label is the outcome token the model voted for.
	Label string `json:"label"`

	// Confidence is the model's original confidence.
	Confidence float64 `json:"confidence"`

	// Weight is the effective weight assigned to the slot.
	Weight float64 `json:"weight"`

	// Weighted is Confidence * Weight.
	Weighted float64 `json:"weighted"`
}

// ContributionsOf computes the weighted contribution of every present slot,
// iterating slots in canonical order. The returned slice preserves that
// order so downstream grouping and tie resolution remain reproducible.
func ContributionsOf(in EnsembleInput, weights WeightSet) []Contribution {
	contribs := make([]Contribution, 0, 3)
	for _, slot := range Slots() {
		pred := in.At(slot)
		if pred == nil {
			continue
		}
		w := weights.At(slot)
		contribs = append(contribs, Contribution{
			Slot:       slot,
			Label:      pred.Label,
			Confidence: pred.Confidence,
			Weight:     w,
			Weighted:   pred.Confidence * w,
		})
	}
	return contribs
}

// Vote is the consensus outcome produced by the vote aggregator.
type Vote struct {
	// Label is the winning outcome token.
	Label string `json:"label"`

	// Confidence is the winning label's weighted contribution sum
	// normalized by the total weight of all voters, in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Severity classifies how ambiguous a detected conflict is.
type Severity string

// Conflict severity tiers, from most to least ambiguous.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// String returns the severity as a string.
func (s Severity) String() string { return string(s) }

// ConflictRecord reports that the two most strongly weighted model votes
// disagree on the outcome within the ambiguity margin. It is omitted
// entirely, never emitted with Detected=false, when no conflict is found.
type ConflictRecord struct {
	Detected bool     `json:"detected"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// EnsembleBreakdown echoes the per-slot inputs, the weights actually used,
// and the optional conflict record, making every result machine-auditable.
// Absent slots appear as the sentinel entry rather than being dropped.
type EnsembleBreakdown struct {
	FullTime ModelPrediction `json:"full_time"`
	HalfTime ModelPrediction `json:"half_time"`
	Pattern  ModelPrediction `json:"pattern"`
	Weights  WeightSet       `json:"weights"`
	Conflict *ConflictRecord `json:"conflict,omitempty"`
}

// EnsembleResult is the complete output of one aggregation: the consensus
// prediction, its normalized confidence, and the auditable breakdown.
type EnsembleResult struct {
	Prediction string            `json:"prediction"`
	Confidence float64           `json:"confidence"`
	Breakdown  EnsembleBreakdown `json:"breakdown"`
}
