package domain

import (
	"fmt"
	"strings"
)

// Scope selects which time periods are pooled into one average.
type Scope string

const (
	ScopeAnnual Scope = "Annual"
	ScopeWinter Scope = "Winter"
	ScopeSummer Scope = "Summer"
)

// Scopes lists every scope in pipeline order.
var Scopes = []Scope{ScopeAnnual, ScopeWinter, ScopeSummer}

// ParseScope accepts a scope name in any letter case.
func ParseScope(s string) (Scope, error) {
	for _, sc := range Scopes {
		if strings.EqualFold(strings.TrimSpace(s), string(sc)) {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown scope %q", s)
}

// Slug is the lower-case form used in artifact names, e.g. "winter".
func (s Scope) Slug() string {
	return strings.ToLower(string(s))
}

// Seasonal reports whether the scope filters periods by season.
func (s Scope) Seasonal() bool {
	return s == ScopeWinter || s == ScopeSummer
}

// Matches reports whether a raw time period label belongs to the scope.
// Annual accepts every period; seasonal scopes match on the season name.
func (s Scope) Matches(timePeriod string) bool {
	if !s.Seasonal() {
		return true
	}
	return strings.Contains(strings.ToLower(timePeriod), s.Slug())
}
