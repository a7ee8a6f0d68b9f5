package intelligence

import (
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches a decimal with either '.' or ',' as separator.
const numberPattern = `(\d+(?:[.,]\d+)?)`

// laborRule is one step of an ordered extraction chain. extract receives the
// submatches of pattern and reports whether it produced a usable value.
type laborRule struct {
	name    string
	pattern *regexp.Regexp
	extract func(match []string) (float64, bool)
}

// laborRuleChain tries rules in order; the first one that yields wins and
// later rules are never consulted.
type laborRuleChain []laborRule

func (c laborRuleChain) apply(text string) (value float64, rule string, ok bool) {
	for _, r := range c {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := r.extract(m); ok {
			return v, r.name, true
		}
	}
	return 0, "", false
}

// firstGroupHours reads submatch 1 as a positive hour figure.
func firstGroupHours(m []string) (float64, bool) {
	if len(m) < 2 {
		return 0, false
	}
	v, ok := parseHours(m[1])
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseHours(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
