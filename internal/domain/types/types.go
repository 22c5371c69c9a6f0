// Package types contains common types used across the application
package types

// Entry represents one line of the ranked recruit report
type Entry struct {
	Rank         int     `json:"rank"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Raw          float64 `json:"raw"`
	Standardized float64 `json:"standardized"`
	Grade        string  `json:"grade"`
	// Reference is an externally assigned score shown for comparison only.
	Reference    string `json:"reference,omitempty"`
	HasReference bool   `json:"-"`
}

// ReferenceOr returns the reference score or placeholder when none is set.
func (e Entry) ReferenceOr(placeholder string) string {
	if !e.HasReference {
		return placeholder
	}
	return e.Reference
}
