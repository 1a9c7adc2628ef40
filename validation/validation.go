package validation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Violation is one failed rule. Code is an i18n code; Args feed its format verbs.
type Violation struct {
	Field string `json:"field"`
	Code  string `json:"code"`
	Args  []any  `json:"args,omitempty"`
}

// Violations keeps failed rules in evaluation order.
type Violations []Violation

func (v Violations) Empty() bool { return len(v) == 0 }

// Add appends a violation.
func (v *Violations) Add(field, code string, args ...any) {
	*v = append(*v, Violation{Field: field, Code: code, Args: args})
}

// Fields returns the violated field names in order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for _, x := range v {
		out = append(out, x.Field)
	}
	return out
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Basic validators
func Required(field, value, code string, v *Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, code)
	}
}

// Email checks the local@domain.tld shape; empty values are left to Required.
func Email(field, value, code string, v *Violations) {
	value = strings.TrimSpace(value)
	if value != "" && !emailRe.MatchString(value) {
		v.Add(field, code)
	}
}

func NonNegative(field string, val decimal.Decimal, code string, v *Violations, args ...any) {
	if val.IsNegative() {
		v.Add(field, code, args...)
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, code string, v *Violations, args ...any) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v.Add(field, code, args...)
	}
}
