// Package page holds the page records stored in the warehouse and their attribute normalization.
package page

import (
	"cloud.google.com/go/civil"
)

// Attribute is a named page attribute.
type Attribute struct {
	Name  string
	Value Value
}

// Record is the page metadata stored for a page identifier.
type Record struct {
	ID         string
	Date       civil.Date
	Attributes []Attribute
}

// FormattedDate returns the page date as YYYY-MM-DD, or an empty string when the date was not stored.
func (r Record) FormattedDate() string {
	if !r.Date.IsValid() {
		return ""
	}
	return r.Date.String()
}

// Normalize flattens attributes into a map from name to plain value.
//
// The first populated value wins for a given name. Unnamed and absent values are skipped.
func Normalize(attrs []Attribute) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, a := range attrs {
		if a.Name == "" || !a.Value.Valid() {
			continue
		}
		if _, ok := out[a.Name]; ok {
			continue
		}
		out[a.Name] = a.Value.Interface()
	}
	return out
}
