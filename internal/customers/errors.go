package customers

import "errors"

var (
	// ErrCustomerNotFound is returned when no customer matches a lookup
	ErrCustomerNotFound = errors.New("customers: customer not found")

	// ErrDuplicateEmail is returned when creating a customer whose email is already stored
	ErrDuplicateEmail = errors.New("customers: email already exists")

	// ErrInvalidID is returned for malformed customer identifiers
	ErrInvalidID = errors.New("customers: invalid id")

	// ErrEmailRequired is returned when creating a customer without an email
	ErrEmailRequired = errors.New("customers: email is required")

	// ErrInvalidEmail is returned when the email does not look like an address
	ErrInvalidEmail = errors.New("customers: invalid email")

	// ErrInvalidStatus is returned for statuses outside the lead lifecycle
	ErrInvalidStatus = errors.New("customers: invalid status")
)

// IsNotFound reports whether err means the customer does not exist. A
// malformed id can never match a stored record, so it counts as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrInvalidID)
}
