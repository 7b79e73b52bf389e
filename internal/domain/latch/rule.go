package latch

import (
	"fmt"
	"path"
	"strings"

	"github.com/okian/droidpad/internal/domain/control"
)

// Rule decides which digital controls take part in double-tap latching.
// It holds glob patterns (path.Match syntax) matched against canonical
// control names; a control is enrolled when any pattern matches.
type Rule struct {
	patterns []string
}

// AllControls enrolls every digital control.
func AllControls() Rule { return Rule{patterns: []string{"*"}} }

// NoControls enrolls nothing; every event passes through untouched.
func NoControls() Rule { return Rule{} }

// ParseRule parses a comma-separated pattern list such as "*", "a,b" or
// "*_up,trigger_*". "none" and the empty string enroll nothing.
func ParseRule(s string) (Rule, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "none" {
		return NoControls(), nil
	}
	var r Rule
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := path.Match(p, "probe"); err != nil {
			return Rule{}, fmt.Errorf("%w: %q: %v", ErrBadRule, p, err)
		}
		r.patterns = append(r.patterns, p)
	}
	return r, nil
}

// Enrolled reports whether id is subject to latching. Axes never are.
func (r Rule) Enrolled(id control.ID) bool {
	if !id.IsDigital() {
		return false
	}
	name := id.Name()
	for _, p := range r.patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (r Rule) String() string {
	if len(r.patterns) == 0 {
		return "none"
	}
	return strings.Join(r.patterns, ",")
}
