package plugin

import "strings"

// MileageUnit is appended to a mileage that does not already carry it.
const MileageUnit = "km"

// Query is a structured vehicle search. Every field is optional.
type Query struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Trim    string `json:"trim"`
	Year    string `json:"year"`
	Mileage string `json:"mileage"`
}

// Normalize trims every field and suffixes a bare mileage with its unit.
func (q Query) Normalize() Query {
	q.Brand = strings.TrimSpace(q.Brand)
	q.Model = strings.TrimSpace(q.Model)
	q.Trim = strings.TrimSpace(q.Trim)
	q.Year = strings.TrimSpace(q.Year)
	q.Mileage = strings.TrimSpace(q.Mileage)
	if q.Mileage != "" && !strings.HasSuffix(strings.ToLower(q.Mileage), MileageUnit) {
		q.Mileage += " " + MileageUnit
	}
	return q
}

// Term joins every non-empty field into a free-text search term.
func (q Query) Term() string {
	return joinNonEmpty(q.Brand, q.Model, q.Trim, q.Year, q.Mileage)
}

// RelaxedTerm is Term without the trim field.
func (q Query) RelaxedTerm() string {
	return joinNonEmpty(q.Brand, q.Model, q.Year, q.Mileage)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
