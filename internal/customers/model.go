package customers

import (
	"net/mail"
	"strings"
	"time"

	"github.com/wolfman30/storefront-ai-assistant/internal/profile"
)

// Status tracks where a customer sits in the sales funnel.
type Status string

const (
	StatusNew        Status = "new"
	StatusQualified  Status = "qualified"
	StatusInterested Status = "interested"
	StatusConverted  Status = "converted"
	StatusLost       Status = "lost"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusNew, StatusQualified, StatusInterested, StatusConverted, StatusLost:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Customer is the durable record of a visitor, keyed by email.
type Customer struct {
	ID        string          `json:"id"`
	Profile   profile.Profile `json:"profile"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Email returns the de-duplication key of the customer.
func (c *Customer) Email() string {
	return c.Profile.Email
}

// ListFilter narrows admin listings.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// ValidateNew checks that a profile can become a customer record.
func ValidateNew(p profile.Profile) error {
	email := strings.TrimSpace(p.Email)
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
