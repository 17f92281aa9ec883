package partners

import (
	"strings"

	"github.com/google/uuid"
)

// Partner is a customer or supplier record owned by the partner
// management surface; the accounting core only reads it.
type Partner struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	PartnerType string
	CompanyName string
	FirstName   string
	LastName    string
	StateCode   string
}

// DisplayName prefers the registered company name and falls back to
// the contact's full name.
func (p Partner) DisplayName() string {
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
