package prompt

import "strings"

// Builder assembles a prompt by concatenation. Sections with an empty body
// are skipped so optional inputs leave no trace.
type Builder struct {
	parts []string
}

// Text appends a paragraph without a heading.
func (b *Builder) Text(text string) *Builder {
	if text = strings.TrimSpace(text); text != "" {
		b.parts = append(b.parts, text)
	}
	return b
}

// Section appends a headed section when body is not blank.
func (b *Builder) Section(heading, body string) *Builder {
	if s := section(heading, body); s != "" {
		b.parts = append(b.parts, s)
	}
	return b
}

// Optional appends a "label: value" line when value is not blank.
func (b *Builder) Optional(label, value string) *Builder {
	if line := labeled(label, value); line != "" {
		b.parts = append(b.parts, line)
	}
	return b
}

// String returns the assembled prompt.
func (b *Builder) String() string {
	return tidy(strings.Join(b.parts, "\n\n"))
}

// section renders "## HEADING" followed by body, or "" for a blank body.
// Template kinds use it to fill their placeholders, so both styles produce
// identical section blocks.
func section(heading, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if heading == "" {
		return body
	}
	return "## " + heading + "\n" + body
}

func bulletList(items []string) string {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}

// labeled renders "Label: value" or nothing when value is blank.
func labeled(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
