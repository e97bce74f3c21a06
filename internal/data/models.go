// Package data loads the login credentials and test cases the suite runs.
package data

import "fmt"

// Credentials is a username and password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Outcome is the expected result of a login attempt.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeLocked          Outcome = "locked"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeMissingUsername Outcome = "missing-username"
	OutcomeMissingPassword Outcome = "missing-password"
)

// ParseOutcome validates s as an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeSuccess, OutcomeLocked, OutcomeInvalid, OutcomeMissingUsername, OutcomeMissingPassword:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Succeeds reports whether the outcome is a successful login.
func (o Outcome) Succeeds() bool { return o == OutcomeSuccess }

// Case is one login scenario with its expected result.
type Case struct {
	ID            string      `json:"id"`
	Description   string      `json:"description,omitempty"`
	Creds         Credentials `json:"creds"`
	Outcome       Outcome     `json:"outcome"`
	ExpectedError string      `json:"expectedError,omitempty"`
	Tags          []string    `json:"tags,omitempty"`
}

// HasAnyTag reports whether the case carries at least one of tags.
func (c Case) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range c.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
