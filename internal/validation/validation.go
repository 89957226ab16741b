// Package validation checks required-field rules against loosely typed input.
package validation

import (
	"fmt"
	"strings"
)

// Fields is the input object a rule reads from: query, path or body values keyed by name.
type Fields map[string]any

// Rule is a deferred check against a single field.
type Rule struct {
	field string
	check func() (bool, string)
}

// RuleResult reports the outcome of one rule.
type RuleResult struct {
	Field   string `json:"field"`
	Pass    bool   `json:"pass"`
	Message string `json:"message,omitempty"`
}

// Verdict is the aggregate outcome of a rule set.
type Verdict struct {
	Pass   bool         `json:"pass"`
	Result []RuleResult `json:"result"`
}

// Required builds a rule that passes when field is present and non-empty in source.
func Required(source Fields, field string) Rule {
	return Rule{
		field: field,
		check: func() (bool, string) {
			if !present(source[field]) {
				return false, fmt.Sprintf("%s is required", field)
			}
			return true, ""
		},
	}
}

// Check evaluates rules in order. Pass is true iff every rule passes.
func Check(rules ...Rule) Verdict {
	verdict := Verdict{Pass: true, Result: make([]RuleResult, 0, len(rules))}
	for _, rule := range rules {
		ok, msg := rule.evaluate()
		if !ok {
			verdict.Pass = false
		}
		verdict.Result = append(verdict.Result, RuleResult{Field: rule.field, Pass: ok, Message: msg})
	}
	return verdict
}

func (r Rule) evaluate() (ok bool, msg string) {
	if r.check == nil {
		return false, fmt.Sprintf("%s has no check", r.field)
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok, msg = false, fmt.Sprintf("%s could not be checked", r.field)
		}
	}()
	return r.check()
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case *string:
		return v != nil && strings.TrimSpace(*v) != ""
	case *float64:
		return v != nil
	case *bool:
		return v != nil
	default:
		return true
	}
}

// Error carries a failing verdict through error returns.
type Error struct {
	Verdict Verdict
}

// NewError wraps a verdict. It should only be called with a failing verdict.
func NewError(v Verdict) *Error {
	return &Error{Verdict: v}
}

func (e *Error) Error() string {
	var missing []string
	for _, r := range e.Verdict.Result {
		if !r.Pass {
			missing = append(missing, r.Field)
		}
	}
	return "validation failed: " + strings.Join(missing, ", ")
}

// Gate returns nil when every rule passes, otherwise an *Error holding the verdict.
func Gate(rules ...Rule) error {
	verdict := Check(rules...)
	if verdict.Pass {
		return nil
	}
	return NewError(verdict)
}
