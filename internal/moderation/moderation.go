// Package moderation checks user-written post and comment bodies before they are
// submitted. It has no side effects and never rewrites the body.
package moderation

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLength = 10

	capsRatioLimit = 0.5
	capsMinLength  = 20
)

var (
	ErrTooShort                = errors.New("too short")
	ErrInappropriateLanguage   = errors.New("inappropriate language")
	ErrExcessiveCapitalization = errors.New("excessive capitalization")
)

var defaultTerms = []string{
	"idiot",
	"stupid",
	"moron",
	"loser",
	"scam",
	"spam",
	"fuck",
	"shit",
	"bitch",
	"bastard",
}

var defaultFilter = New(defaultTerms...)

// Rejection is returned for a body that must not be submitted.
type Rejection struct {
	Reason error
}

func (r *Rejection) Error() string {
	return "content rejected: " + r.Reason.Error()
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

type Filter struct {
	terms []string
}

func New(terms ...string) *Filter {
	lowered := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lowered = append(lowered, term)
		}
	}

	return &Filter{
		terms: lowered,
	}
}

// Check returns nil when body is acceptable, otherwise a *Rejection naming the first rule that failed.
func (f *Filter) Check(body string) error {
	length := utf8.RuneCountInString(body)
	if length < MinLength {
		return &Rejection{Reason: ErrTooShort}
	}

	lowered := strings.ToLower(body)
	for _, term := range f.terms {
		if strings.Contains(lowered, term) {
			return &Rejection{Reason: ErrInappropriateLanguage}
		}
	}

	if length > capsMinLength {
		upper := 0
		for _, r := range body {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if float64(upper)/float64(length) > capsRatioLimit {
			return &Rejection{Reason: ErrExcessiveCapitalization}
		}
	}

	return nil
}

func Check(body string) error {
	return defaultFilter.Check(body)
}
