// internal/lore/match.go
package lore

import (
	"regexp"
	"strings"
)

/*
 * Key matching and trigger evaluation.
 *
 * Two key syntaxes: a plain key is a case-insensitive substring test; a key
 * wrapped as /pattern/flags is an unanchored regex search. Flag characters
 * follow the lorebook convention [gimsuxy], but only i, m, and s change Go
 * matching (mapped to inline flags); the rest are accepted and ignored so
 * books written for other hosts still load.
 *
 * Malformed patterns never match and never raise: authors paste experimental
 * regexes, and a typo must not take down a writing session.
 *
 * EvaluateTrigger applies the logic gate over secondary keys:
 *   - and_any: primary AND any secondary
 *   - and_all: primary AND every secondary
 *   - not_any: primary AND no secondary
 *   - not_all: primary AND at least one secondary absent
 * Each secondary key is tested independently against the whole text.
 */

// regexKeyShape splits a /pattern/flags key. The pattern group is greedy, so
// the last slash separates pattern from flags.
var regexKeyShape = regexp.MustCompile(`^/(.+)/([gimsuxy]*)$`)

// IsRegexKey reports whether a key uses the /pattern/flags syntax.
func IsRegexKey(key string) bool {
	return strings.HasPrefix(key, "/") && strings.Contains(key[1:], "/")
}

// parseRegexKey compiles a /pattern/flags key. Returns nil for keys that are
// not regex syntax or whose pattern fails to compile.
func parseRegexKey(key string) *regexp.Regexp {
	if !IsRegexKey(key) {
		return nil
	}
	m := regexKeyShape.FindStringSubmatch(key)
	if m == nil {
		return nil
	}
	pattern, flagChars := m[1], m[2]

	var inline string
	for _, f := range "ims" {
		if strings.ContainsRune(flagChars, f) {
			inline += string(f)
		}
	}
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// MatchesAny reports whether any key matches the text.
func MatchesAny(text string, keys []string) bool {
	textLower := strings.ToLower(text)
	for _, key := range keys {
		if IsRegexKey(key) {
			if re := parseRegexKey(key); re != nil && re.MatchString(text) {
				return true
			}
		} else if strings.Contains(textLower, strings.ToLower(key)) {
			return true
		}
	}
	return false
}

// matchesAll reports whether every key individually matches the text.
func matchesAll(text string, keys []string) bool {
	for _, key := range keys {
		if !MatchesAny(text, []string{key}) {
			return false
		}
	}
	return true
}

// EvaluateTrigger reports whether the entry's key configuration matches the
// text. Pure: consults neither temporal state nor probability, and ignores
// the Constant and Disabled flags.
func (e *Entry) EvaluateTrigger(text string) bool {
	if len(e.Keys) == 0 {
		return false
	}
	if !MatchesAny(text, e.Keys) {
		return false
	}
	if len(e.SecondaryKeys) == 0 {
		return true
	}

	switch e.Logic {
	case LogicAndAny:
		return MatchesAny(text, e.SecondaryKeys)
	case LogicAndAll:
		return matchesAll(text, e.SecondaryKeys)
	case LogicNotAny:
		return !MatchesAny(text, e.SecondaryKeys)
	case LogicNotAll:
		return !matchesAll(text, e.SecondaryKeys)
	}
	return false
}
