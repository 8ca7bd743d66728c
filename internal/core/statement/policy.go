package statement

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// MatchPolicy decides whether a method name matches any of a set of
// lower-cased patterns. Implementations must be pure predicates.
type MatchPolicy interface {
	MatchesAny(patterns []string, candidate string) bool
}

// Policy names accepted by PolicyByName.
const (
	PolicyContains = "contains"
	PolicyPrefix   = "prefix"
	PolicyToken    = "token"
)

// ContainsPolicy matches when any pattern occurs anywhere in the name,
// ignoring case. It is the default policy.
type ContainsPolicy struct{}

// MatchesAny implements MatchPolicy.
func (ContainsPolicy) MatchesAny(patterns []string, candidate string) bool {
	name := lower(candidate)
	for _, p := range patterns {
		if p != "" && strings.Contains(name, lower(p)) {
			return true
		}
	}
	return false
}

// PrefixPolicy matches when the name starts with a pattern, ignoring case.
type PrefixPolicy struct{}

// MatchesAny implements MatchPolicy.
func (PrefixPolicy) MatchesAny(patterns []string, candidate string) bool {
	name := lower(candidate)
	for _, p := range patterns {
		if p != "" && strings.HasPrefix(name, lower(p)) {
			return true
		}
	}
	return false
}

// TokenPolicy matches when a pattern starts at a word boundary of the name.
// Boundaries are the start of the name, an upper-case letter following a
// lower-case letter or digit, and the character after '_' or '$'.
// "deleteById" matches "del" and "by" but not "ele".
type TokenPolicy struct{}

// MatchesAny implements MatchPolicy.
func (TokenPolicy) MatchesAny(patterns []string, candidate string) bool {
	runes := []rune(candidate)
	name := make([]rune, len(runes))
	for i, r := range runes {
		name[i] = unicode.ToLower(r)
	}
	for _, start := range tokenStarts(runes) {
		rest := string(name[start:])
		for _, p := range patterns {
			if p != "" && strings.HasPrefix(rest, lower(p)) {
				return true
			}
		}
	}
	return false
}

// tokenStarts returns the rune indexes where camelCase or snake_case words
// begin.
func tokenStarts(name []rune) []int {
	var starts []int
	var prev rune
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case i == 0, prev == '_', prev == '$':
			starts = append(starts, i)
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			starts = append(starts, i)
		}
		prev = r
	}
	return starts
}

var policies = map[string]MatchPolicy{
	PolicyContains: ContainsPolicy{},
	PolicyPrefix:   PrefixPolicy{},
	PolicyToken:    TokenPolicy{},
}

// DefaultPolicy returns the built-in substring policy.
func DefaultPolicy() MatchPolicy {
	return ContainsPolicy{}
}

// PolicyByName returns a named policy. An empty name selects the default.
func PolicyByName(name string) (MatchPolicy, error) {
	if name == "" {
		return DefaultPolicy(), nil
	}
	p, ok := policies[lower(name)]
	if !ok {
		return nil, errors.Newf("unknown match policy %q (want one of %s)", name, strings.Join(PolicyNames(), ", "))
	}
	return p, nil
}

// PolicyNames lists the accepted policy names.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
