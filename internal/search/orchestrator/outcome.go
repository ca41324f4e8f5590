// internal/search/orchestrator/outcome.go
package orchestrator

import (
	"time"

	"expert-search/internal/models"
	"expert-search/internal/search/constraint"
)

// Provenance names the path that produced an Outcome.
type Provenance string

const (
	ProvenanceRankedAndFiltered Provenance = "ranked-and-filtered"
	ProvenanceBroadenedFallback Provenance = "broadened-fallback"
	ProvenanceUnfiltered        Provenance = "unfiltered"
)

// Outcome is the terminal result of one search invocation. It is always valid;
// Candidates is never nil.
type Outcome struct {
	Query       string                `json:"query"`
	Candidates  []models.Candidate    `json:"candidates"`
	Provenance  Provenance            `json:"provenance"`
	Constraint  constraint.Constraint `json:"constraint"`
	Diagnostics Diagnostics           `json:"diagnostics"`
}

// Diagnostics describes how an Outcome was produced.
type Diagnostics struct {
	InvocationID  string        `json:"invocationId"`
	RankedCount   int           `json:"rankedCount"`
	FilteredCount int           `json:"filteredCount"`
	FallbackCount int           `json:"fallbackCount"`
	FallbackUsed  bool          `json:"fallbackUsed"`
	Errors        []string      `json:"errors,omitempty"`
	Duration      time.Duration `json:"-"`
	DurationMs    int64         `json:"durationMs"`
}

func newOutcome(query, invocationID string) *Outcome {
	return &Outcome{
		Query:       query,
		Candidates:  []models.Candidate{},
		Provenance:  ProvenanceUnfiltered,
		Diagnostics: Diagnostics{InvocationID: invocationID},
	}
}

// IDs returns the candidate IDs in order.
func (o *Outcome) IDs() []string {
	return models.CandidateIDs(o.Candidates)
}

func (o *Outcome) finish(started time.Time) {
	if o.Candidates == nil {
		o.Candidates = []models.Candidate{}
	}
	o.Diagnostics.Duration = time.Since(started)
	o.Diagnostics.DurationMs = o.Diagnostics.Duration.Milliseconds()
}
