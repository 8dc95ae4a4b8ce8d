package domain

import (
	"strings"
	"unicode"
)

const DefaultCountry = "Italia"

// Address is one end of a trip as entered by the user.
type Address struct {
	Name       string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Normalize trims every field and fills in the default country.
func (a Address) Normalize() Address {
	out := Address{
		Name:       strings.TrimSpace(a.Name),
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// Validate checks a normalized address. prefix names the side ("origin", "destination").
func (a Address) Validate(prefix string) error {
	if a.Street == "" {
		return NewValidationError(prefix+".street", "is required")
	}
	if a.City == "" {
		return NewValidationError(prefix+".city", "is required")
	}
	if a.PostalCode != "" && !isPostalCode(a.PostalCode) {
		return NewValidationError(prefix+".postal_code", "must be 5 digits")
	}
	return nil
}

// Query renders the address as a free-text geocoding query, city last.
func (a Address) Query() string {
	city := strings.TrimSpace(a.PostalCode + " " + a.City)
	parts := make([]string, 0, 2)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// Label is the human readable form used in exports: "Name - Street, City".
func (a Address) Label() string {
	if a.Street == "" {
		return a.Name
	}
	loc := a.Street + ", " + a.City
	if a.Name == "" {
		return loc
	}
	return a.Name + " - " + loc
}

func isPostalCode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
