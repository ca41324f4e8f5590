// internal/workers/search/match-availability/models.go
package matchavailability

import (
	"expert-search/internal/models"
	"expert-search/internal/search/constraint"
)

// Input carries either an explicit constraint or a query to extract one from.
// An explicit constraint wins when both are present.
type Input struct {
	Query      string                 `json:"query,omitempty"`
	Constraint *constraint.Constraint `json:"constraint,omitempty"`
	Candidates []models.Candidate     `json:"candidates"`
}

type Output struct {
	Matched      []models.Candidate    `json:"matched"`
	Rejected     []string              `json:"rejected"`
	MatchedCount int                   `json:"matchedCount"`
	Constraint   constraint.Constraint `json:"constraint"`
}
