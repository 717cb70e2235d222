package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrUnresolvedRule = errors.New("unresolved rule")
	ErrNotFound       = errors.New("not found")
)

// FieldProblem is one field-level validation message.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every problem found before a receipt is built.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Field + ": " + p.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add records a problem.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge appends the problems of other.
func (e *ValidationError) Merge(other *ValidationError) {
	if other != nil {
		e.Problems = append(e.Problems, other.Problems...)
	}
}

// Err returns e when it holds problems, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// UnresolvedReason says why the rule table failed for a combination.
type UnresolvedReason string

const (
	ReasonNoTemplate UnresolvedReason = "no-template"
	ReasonAmbiguous  UnresolvedReason = "ambiguous"
	ReasonInvariant  UnresolvedReason = "invariant"
)

// UnresolvedRuleError is a defect in the rule table, never a user error.
type UnresolvedRuleError struct {
	Merchant     string
	Jurisdiction Jurisdiction
	Tender       TenderType
	Reason       UnresolvedReason
	Rules        []string
	Detail       string
}

func (e *UnresolvedRuleError) Error() string {
	msg := fmt.Sprintf("rules: %s for %s/%s/%s", e.Reason, e.Merchant, e.Jurisdiction, e.Tender)
	if len(e.Rules) > 0 {
		msg += " (rules: " + strings.Join(e.Rules, ", ") + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *UnresolvedRuleError) Is(target error) bool { return target == ErrUnresolvedRule }
