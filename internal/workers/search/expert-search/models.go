// internal/workers/search/expert-search/models.go
package expertsearch

import "expert-search/internal/search/orchestrator"

type Input struct {
	Query string `json:"query"`
	// UseConstraintFiltering defaults to true when the variable is absent.
	UseConstraintFiltering *bool `json:"useConstraintFiltering,omitempty"`
	Compare                bool  `json:"compare,omitempty"`
}

func (i *Input) filteringEnabled() bool {
	return i.UseConstraintFiltering == nil || *i.UseConstraintFiltering
}

type Output struct {
	Outcome      *orchestrator.Outcome `json:"outcome"`
	PlainOutcome *orchestrator.Outcome `json:"plainOutcome,omitempty"`
}
