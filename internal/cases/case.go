// Package cases loads and checks the input/expected-reply records that drive
// a chatbot run.
package cases

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type MatchMode string

const (
	MatchContains MatchMode = "contains"
	MatchExact    MatchMode = "exact"
	MatchRegex    MatchMode = "regex"
)

// Case is one message to send and the reply expected for it.
type Case struct {
	Name     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Input    string    `json:"message_to_send" yaml:"message_to_send"`
	Expected string    `json:"expected_reply" yaml:"expected_reply"`
	Match    MatchMode `json:"match,omitempty" yaml:"match,omitempty"`

	re *regexp.Regexp
}

// ErrInvalid wraps every validation failure reported by Validate.
var ErrInvalid = errors.New("invalid test cases")

// MismatchError is returned by Match when the reply does not satisfy the case.
type MismatchError struct {
	Case   Case
	Actual string
}

func (e *MismatchError) Error() string {
	verb := "to contain"
	switch e.Case.mode() {
	case MatchExact:
		verb = "to equal"
	case MatchRegex:
		verb = "to match"
	}
	return fmt.Sprintf("reply %q: expected %s %q", e.Actual, verb, e.Case.Expected)
}

func (c Case) mode() MatchMode {
	if c.Match == "" {
		return MatchContains
	}
	return c.Match
}

// Match compares a bot reply against c. A nil return means pass.
func Match(c Case, actual string) error {
	got := strings.TrimSpace(actual)
	ok := false
	switch c.mode() {
	case MatchContains:
		ok = strings.Contains(got, c.Expected)
	case MatchExact:
		ok = got == strings.TrimSpace(c.Expected)
	case MatchRegex:
		re := c.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(c.Expected); err != nil {
				return fmt.Errorf("case %s: bad pattern: %w", c.Name, err)
			}
		}
		ok = re.MatchString(got)
	default:
		return fmt.Errorf("case %s: unknown match mode %q", c.Name, c.Match)
	}
	if ok {
		return nil
	}
	return &MismatchError{Case: c, Actual: got}
}

// Validate checks every record and reports all offenders in one error.
// Indexes in the message are 1-based, matching the order in the file.
func Validate(cs []Case) error {
	var problems []string
	for i := range cs {
		c := &cs[i]
		var missing []string
		if strings.TrimSpace(c.Input) == "" {
			missing = append(missing, "message_to_send")
		}
		if strings.TrimSpace(c.Expected) == "" {
			missing = append(missing, "expected_reply")
		}
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("record %d: missing %s", i+1, strings.Join(missing, ", ")))
			continue
		}
		switch c.mode() {
		case MatchContains, MatchExact:
		case MatchRegex:
			re, err := regexp.Compile(c.Expected)
			if err != nil {
				problems = append(problems, fmt.Sprintf("record %d: bad pattern: %v", i+1, err))
				continue
			}
			c.re = re
		default:
			problems = append(problems, fmt.Sprintf("record %d: unknown match mode %q", i+1, c.Match))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// normalizeNames fills in missing names and makes duplicates unique so each
// case maps to one subtest. A name given in the file is never taken by a
// generated one, so suffixes skip past it.
func normalizeNames(cs []Case) {
	given := make(map[string]bool, len(cs))
	for i := range cs {
		cs[i].Name = strings.TrimSpace(cs[i].Name)
		if cs[i].Name != "" {
			given[cs[i].Name] = true
		}
	}

	used := make(map[string]bool, len(cs))
	free := func(name, own string) bool {
		return !used[name] && (!given[name] || name == own)
	}
	for i := range cs {
		own := cs[i].Name
		base := own
		if base == "" {
			base = fmt.Sprintf("case-%03d", i+1)
		}
		name := base
		for n := 2; !free(name, own); n++ {
			name = fmt.Sprintf("%s#%d", base, n)
		}
		used[name] = true
		cs[i].Name = name
	}
}

// normalizeModes lowercases and trims every match mode.
func normalizeModes(cs []Case) {
	for i := range cs {
		cs[i].Match = MatchMode(strings.ToLower(strings.TrimSpace(string(cs[i].Match))))
	}
}
