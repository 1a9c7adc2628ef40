package models

import "strings"

// Company is the seller printed in the PDF header.
type Company struct {
	Name       string
	Email      string
	Phone      string
	Website    string
	Address    string
	City       string
	PostalCode string
	SIRET      string
	VATNumber  string
}

// HeaderLines returns the non-empty header lines in print order.
func (c Company) HeaderLines() []string {
	var lines []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}
	add(c.Name)
	add(c.Address)
	add(strings.TrimSpace(c.PostalCode + " " + c.City))
	add(c.Phone)
	add(c.Email)
	add(c.Website)
	if c.SIRET != "" {
		add("SIRET " + c.SIRET)
	}
	if c.VATNumber != "" {
		add("TVA " + c.VATNumber)
	}
	return lines
}
