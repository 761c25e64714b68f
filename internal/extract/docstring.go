package extract

import (
	"regexp"
	"sort"
	"strings"
)

// RaisesStrategy recognizes one docstring convention for documenting raised
// exceptions. Conventions are added as new strategies, not by growing one
// regex.
type RaisesStrategy interface {
	Name() string
	Extract(doc string) []string
}

// DefaultStrategies covers the google, numpy and reST docstring conventions.
var DefaultStrategies = []RaisesStrategy{
	googleSection{},
	numpySection{},
	restField{},
}

var raisesEntry = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*:\s*\S`)

// ExtractRaises runs every strategy over doc and returns the union of
// exception names, sorted and de-duplicated. Docstrings that match no
// convention yield no entries, never an error.
func ExtractRaises(doc string) []string {
	if doc == "" {
		return nil
	}
	seen := make(map[string]bool)
	for _, strategy := range DefaultStrategies {
		for _, name := range strategy.Extract(doc) {
			seen[name] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// googleSection matches a "Raises:" header followed by "Name: description"
// entries. The section ends at the first blank line or a line that is not an
// entry.
type googleSection struct{}

func (googleSection) Name() string { return "google" }

func (googleSection) Extract(doc string) []string {
	lines := strings.Split(doc, "\n")
	var names []string
	for i, line := range lines {
		if strings.TrimSpace(line) != "Raises:" {
			continue
		}
		names = append(names, collectEntries(lines[i+1:])...)
	}
	return names
}

// numpySection matches the numpy convention: a "Raises" header underlined
// with dashes.
type numpySection struct{}

func (numpySection) Name() string { return "numpy" }

func (numpySection) Extract(doc string) []string {
	lines := strings.Split(doc, "\n")
	var names []string
	for i := 0; i+1 < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "Raises" {
			continue
		}
		underline := strings.TrimSpace(lines[i+1])
		if len(underline) < 3 || strings.Trim(underline, "-") != "" {
			continue
		}
		names = append(names, collectEntries(lines[i+2:])...)
	}
	return names
}

// restField matches inline ":raises Name:" fields anywhere in the docstring.
type restField struct{}

var restRaises = regexp.MustCompile(`:raises\s+([A-Za-z_][A-Za-z0-9_.]*)\s*:`)

func (restField) Name() string { return "rest" }

func (restField) Extract(doc string) []string {
	var names []string
	for _, match := range restRaises.FindAllStringSubmatch(doc, -1) {
		names = append(names, match[1])
	}
	return names
}

func collectEntries(lines []string) []string {
	var names []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			break
		}
		match := raisesEntry.FindStringSubmatch(line)
		if match == nil {
			break
		}
		names = append(names, match[1])
	}
	return names
}

// HasDeprecatedMarker reports whether any docstring line opens with a
// "Deprecated:" marker.
func HasDeprecatedMarker(doc string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "Deprecated:") {
			return true
		}
	}
	return false
}

var stringPrefix = regexp.MustCompile(`^[rRbBuUfF]{0,2}`)

// CleanDocstring strips the quoting from a string literal's source text and
// returns the raw docstring content, newlines preserved.
func CleanDocstring(raw string) string {
	s := strings.TrimSpace(raw)
	s = stringPrefix.ReplaceAllString(s, "")
	for _, quote := range []string{`"""`, `'''`} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2*len(quote) {
			return strings.TrimSpace(s[len(quote) : len(s)-len(quote)])
		}
	}
	for _, quote := range []string{`"`, `'`} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2 {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
