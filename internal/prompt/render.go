// Package prompt assembles LLM prompts from structured authoring inputs.
//
// Two construction styles exist side by side. StyleTemplate renders a fixed
// template containing {{KEY}} placeholders; StyleConcat appends sections one
// by one and skips the empty ones. Each ContentKind uses exactly one of them.
package prompt

import (
	"regexp"
	"strings"
)

// tokenPattern matches any {{...}} token, whatever its content, so that no
// token survives rendering.
var tokenPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// strayBraces drops brace pairs left in template text around or between
// tokens, as in {{{{KEY}}}}.
var strayBraces = strings.NewReplacer("{{", "", "}}", "")

// Render replaces every {{KEY}} in tmpl with vars[KEY], or with the empty
// string when KEY has no entry. Whitespace inside the braces is ignored.
// Substituted values are inserted verbatim; stray braces are removed from
// the template text only.
func Render(tmpl string, vars map[string]string) string {
	var b strings.Builder
	last := 0
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(strayBraces.Replace(tmpl[last:m[0]]))
		b.WriteString(vars[strings.TrimSpace(tmpl[m[2]:m[3]])])
		last = m[1]
	}
	b.WriteString(strayBraces.Replace(tmpl[last:]))
	return b.String()
}

// Placeholders returns the distinct placeholder keys of tmpl in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(tmpl, -1) {
		key := strings.TrimSpace(m[1])
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// MissingVariables lists placeholders of tmpl that have no entry in vars.
// A present but empty entry counts as supplied.
func MissingVariables(tmpl string, vars map[string]string) []string {
	var missing []string
	for _, key := range Placeholders(tmpl) {
		if _, ok := vars[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// HasTokens reports whether s still contains a {{...}} token.
func HasTokens(s string) bool {
	return tokenPattern.MatchString(s)
}

// tidy collapses the blank lines left behind by empty sections.
func tidy(s string) string {
	return strings.TrimSpace(blankRuns.ReplaceAllString(s, "\n\n"))
}
