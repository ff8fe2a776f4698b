// Package profile holds the customer profile record and the pure functions
// that grow it turn by turn: extraction, merging and the completeness gate.
package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names a profile attribute. The string values double as the JSON keys
// exchanged with responders and clients.
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldLookingFor      Field = "looking_for"
	FieldBudget          Field = "budget"
	FieldBrandPreference Field = "brand_preference"
	FieldExcludeBrand    Field = "exclude_brand"
	FieldColorPreference Field = "color_preference"
	FieldConversationID  Field = "conversation_id"
	FieldTimestamp       Field = "timestamp"
)

// Fields lists every profile field in a stable order.
var Fields = []Field{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldLookingFor,
	FieldBudget,
	FieldBrandPreference,
	FieldExcludeBrand,
	FieldColorPreference,
	FieldConversationID,
	FieldTimestamp,
}

// Profile is the evolving record of what is known about one visitor.
// An empty string means the field is unknown.
type Profile struct {
	Name            string `json:"name,omitempty"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	LookingFor      string `json:"looking_for,omitempty"`
	Budget          string `json:"budget,omitempty"`
	BrandPreference string `json:"brand_preference,omitempty"`
	ExcludeBrand    string `json:"exclude_brand,omitempty"`
	ColorPreference string `json:"color_preference,omitempty"`
	ConversationID  string `json:"conversation_id,omitempty"`
	Timestamp       string `json:"timestamp,omitempty"`
}

func (p *Profile) slot(f Field) *string {
	switch f {
	case FieldName:
		return &p.Name
	case FieldEmail:
		return &p.Email
	case FieldPhone:
		return &p.Phone
	case FieldLookingFor:
		return &p.LookingFor
	case FieldBudget:
		return &p.Budget
	case FieldBrandPreference:
		return &p.BrandPreference
	case FieldExcludeBrand:
		return &p.ExcludeBrand
	case FieldColorPreference:
		return &p.ColorPreference
	case FieldConversationID:
		return &p.ConversationID
	case FieldTimestamp:
		return &p.Timestamp
	}
	return nil
}

// Get returns the value of f, or "" for unknown fields.
func (p Profile) Get(f Field) string {
	if s := p.slot(f); s != nil {
		return *s
	}
	return ""
}

// Set assigns v to f. It reports false when f is not a profile field.
func (p *Profile) Set(f Field, v string) bool {
	s := p.slot(f)
	if s == nil {
		return false
	}
	*s = v
	return true
}

// Has reports whether f holds a non-blank value.
func (p Profile) Has(f Field) bool {
	return strings.TrimSpace(p.Get(f)) != ""
}

// IsZero reports whether no field is known.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Known returns the non-empty fields as a map keyed by field name.
func (p Profile) Known() map[string]string {
	out := make(map[string]string)
	for _, f := range Fields {
		if p.Has(f) {
			out[string(f)] = p.Get(f)
		}
	}
	return out
}

// FromMap converts loosely typed key/value data, typically a responder's
// extracted_fields object, into a partial profile. Unknown keys are returned
// separately so callers can log them. Numbers are rendered without exponent,
// lists are joined with ", " and null values are treated as absent.
func FromMap(data map[string]any) (Profile, []string) {
	var (
		out     Profile
		unknown []string
	)
	for key, raw := range data {
		field := Field(strings.ToLower(strings.TrimSpace(key)))
		value := stringify(raw)
		if field == FieldBudget {
			value = normalizeBudget(value)
		}
		if !out.Set(field, value) {
			unknown = append(unknown, key)
		}
	}
	return out, unknown
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// normalizeBudget prefixes bare numeric budgets with a dollar sign so values
// coming from responders look like the ones the extractor stores.
func normalizeBudget(v string) string {
	if v == "" || strings.HasPrefix(v, "$") {
		return v
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil {
		return "$" + v
	}
	return v
}

// BudgetAmount parses a stored budget such as "$1,200.50" into a number.
// ok is false when the value carries no parseable amount.
func BudgetAmount(budget string) (amount float64, ok bool) {
	cleaned := strings.TrimSpace(budget)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
