package policy

import "context"

// SemanticMatcher is the external AI collaborator consulted for the
// semantic exclusion check. Given a diagnosis and the applicable exclusion
// list, it decides whether the diagnosis falls under an exclusion and how
// confident it is in [0,1].
//
// This is the one non-deterministic oracle in the validator; its verdict is
// only accepted above the validator's confidence threshold, and any failure
// degrades to "not excluded, confidence 0".
type SemanticMatcher interface {
	MatchExclusion(ctx context.Context, diagnosis string, cieCode string, exclusions []string) (excluded bool, confidence float64, err error)
}

// NoopMatcher never matches. Used when no external matcher is configured.
type NoopMatcher struct{}

// MatchExclusion always reports no exclusion with zero confidence.
func (NoopMatcher) MatchExclusion(ctx context.Context, diagnosis string, cieCode string, exclusions []string) (bool, float64, error) {
	return false, 0, nil
}
