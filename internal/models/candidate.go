// internal/models/candidate.go
package models

// Candidate is an expert profile as it crosses the search boundary.
// Availability is free text with no enforced format.
type Candidate struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Headline     string   `json:"headline,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	Availability string   `json:"availability"`
	Score        float64  `json:"score,omitempty"` // ranking score from the ranked collaborator, if any
}

// CandidateIDs returns the IDs in order.
func CandidateIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
