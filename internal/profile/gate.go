package profile

// MissingPreferences is appended by MissingFields when every required field
// is known but neither a budget nor a brand preference has been given.
const MissingPreferences = "preferences"

// RequiredFields are checked in this order by MissingFields.
var RequiredFields = []Field{FieldName, FieldEmail, FieldPhone, FieldLookingFor}

// MissingFields returns, in priority order, the required fields p still
// lacks. The preferences sentinel is a nudge, not a requirement.
func MissingFields(p Profile) []string {
	missing := make([]string, 0, len(RequiredFields)+1)
	for _, f := range RequiredFields {
		if !p.Has(f) {
			missing = append(missing, string(f))
		}
	}
	if len(missing) == 0 && !p.Has(FieldBudget) && !p.Has(FieldBrandPreference) {
		missing = append(missing, MissingPreferences)
	}
	return missing
}

// HasRequired reports whether all required fields are known.
func HasRequired(p Profile) bool {
	for _, f := range RequiredFields {
		if !p.Has(f) {
			return false
		}
	}
	return true
}

// ReadyForProducts decides whether product matching should run: either
// nothing is missing, or the intent is known and at most one field is.
func ReadyForProducts(p Profile, missing []string) bool {
	if len(missing) == 0 {
		return true
	}
	return p.Has(FieldLookingFor) && len(missing) <= 1
}
