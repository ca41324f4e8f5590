// internal/workers/search/extract-constraints/models.go
package extractconstraints

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Constraint    ConstraintView `json:"constraint"`
	HasConstraint bool           `json:"hasConstraint"`
}

// ConstraintView flattens a constraint for process variables. Unset fields are empty
// strings and a nil Minutes.
type ConstraintView struct {
	Day     string `json:"day"`
	DayKind string `json:"dayKind"`
	Time    string `json:"time"`
	Minutes *int   `json:"minutes"`
}
