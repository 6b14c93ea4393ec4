package domain

import (
	"fmt"
	"strings"
)

// Answer is the evaluator's response to one item.
type Answer string

const (
	AnswerYes Answer = "yes"
	AnswerNo  Answer = "no"
	AnswerNA  Answer = "na"
)

// ParseAnswer parses a string into an Answer, case-insensitive.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return AnswerYes, nil
	case "no":
		return AnswerNo, nil
	case "na", "n/a":
		return AnswerNA, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, s)
	}
}

// Valid reports whether a is one of yes, no or na.
func (a Answer) Valid() bool {
	return a == AnswerYes || a == AnswerNo || a == AnswerNA
}

// Answers maps item id to answer. A missing key means unanswered.
type Answers map[string]Answer

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
