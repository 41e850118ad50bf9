package units

import (
	"context"

	"github.com/matchsight/ensemble/internal/domain"
	"github.com/matchsight/ensemble/internal/ports"
)

var _ ports.Unit = (*VoteAggregatorUnit)(nil)

// VoteAggregatorUnit combines the weighted per-slot votes into one
// consensus label and a normalized confidence.
//
// Contributions are grouped by exact label match into an ordered list of
// (label, sum) pairs built in canonical slot order, never a map, so the
// winner and tie resolution are reproducible across runs. On an exact tie
// the label encountered first wins, which favors the full-time model's
// label because its slot is visited first. That is a deliberate policy,
// not an iteration-order accident.
//
// The unit is stateless and thread-safe.
type VoteAggregatorUnit struct {
	name string
}

// labelSum accumulates the weighted contribution of one outcome label.
// Kept in a slice in first-encountered order to preserve the tie-break policy.
type labelSum struct {
	label string
	sum   float64
}

// NewVoteAggregatorUnit creates a VoteAggregatorUnit. The unit has no
// tunable parameters; the tie-break and grouping policies are fixed to
// keep results deterministic.
func NewVoteAggregatorUnit(name string) (*VoteAggregatorUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}
	return &VoteAggregatorUnit{name: name}, nil
}

// Name returns the unique identifier for this unit instance.
func (vau *VoteAggregatorUnit) Name() string { return vau.name }

// Execute computes the per-slot weighted contributions from the input and
// weight set already in state, aggregates them into a consensus vote, and
// writes both back under KeyContributions and KeyVote.
func (vau *VoteAggregatorUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	input, ok := domain.Get(state, domain.KeyInput)
	if !ok {
		return state, ErrMissingInput
	}
	weights, ok := domain.Get(state, domain.KeyWeights)
	if !ok {
		return state, ErrMissingWeights
	}

	contribs := domain.ContributionsOf(input, weights)
	vote, err := vau.Aggregate(contribs)
	if err != nil {
		return state, err
	}

	state = domain.With(state, domain.KeyContributions, contribs)
	return domain.With(state, domain.KeyVote, vote), nil
}

// Aggregate combines weighted contributions into the consensus vote.
//
// The winning label is the one with the largest summed weighted
// contribution. The confidence is the winner's sum normalized by the
// total weight of all contributing slots, which makes it a weighted
// average of the winning label's confidences: with a single voter it
// reduces exactly to that model's own confidence. A zero total guards
// the division and yields confidence zero.
func (vau *VoteAggregatorUnit) Aggregate(contribs []domain.Contribution) (domain.Vote, error) {
	if len(contribs) == 0 {
		return domain.Vote{}, domain.ErrNoPredictions
	}

	sums := make([]labelSum, 0, len(contribs))
	var total float64
	for _, c := range contribs {
		total += c.Weight
		grouped := false
		for i := range sums {
			if sums[i].label == c.Label {
				sums[i].sum += c.Weighted
				grouped = true
				break
			}
		}
		if !grouped {
			sums = append(sums, labelSum{label: c.Label, sum: c.Weighted})
		}
	}

	// Strict > keeps the first-encountered label on exact ties.
	winner := sums[0]
	for _, ls := range sums[1:] {
		if ls.sum > winner.sum {
			winner = ls
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = winner.sum / total
	}

	return domain.Vote{Label: winner.label, Confidence: confidence}, nil
}

// Validate checks that the unit is ready for execution.
func (vau *VoteAggregatorUnit) Validate() error {
	if vau.name == "" {
		return ErrEmptyUnitName
	}
	return nil
}

// CreateVoteAggregatorUnit is a factory function following the UnitFactory
// pattern. The configuration map is accepted for interface uniformity but
// carries no parameters.
func CreateVoteAggregatorUnit(id string, _ map[string]any) (*VoteAggregatorUnit, error) {
	return NewVoteAggregatorUnit(id)
}
