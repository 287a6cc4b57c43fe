package service

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// UrgencySpeciality is submitted when the visitor accepts the urgency fallback.
const UrgencySpeciality = "Médecine d'urgence"

//go:embed data/specialities.json
var defaultSpecialities []byte

// SpecialityCatalog is the list of specialties a reservation may target.
type SpecialityCatalog struct {
	names  []string
	lower  []string
	groups map[string]string
}

// NewDefaultSpecialityCatalog loads the catalog shipped with the binary
func NewDefaultSpecialityCatalog() (*SpecialityCatalog, error) {
	return NewSpecialityCatalog(bytes.NewReader(defaultSpecialities))
}

// NewSpecialityCatalog reads a JSON object whose keys are specialty names and
// whose values are their groups. Key order is kept; the empty key is skipped.
func NewSpecialityCatalog(r io.Reader) (*SpecialityCatalog, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read specialities: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("specialities must be a JSON object")
	}

	catalog := &SpecialityCatalog{groups: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read speciality name: %w", err)
		}
		name, _ := tok.(string)

		var group string
		if err := dec.Decode(&group); err != nil {
			return nil, fmt.Errorf("failed to read group of %q: %w", name, err)
		}

		name = Normalize(name)
		if name == "" {
			continue
		}
		if _, dup := catalog.groups[name]; dup {
			continue
		}
		catalog.names = append(catalog.names, name)
		catalog.lower = append(catalog.lower, lower(name))
		catalog.groups[name] = group
	}

	return catalog, nil
}

// Names returns every specialty in catalog order
func (c *SpecialityCatalog) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *SpecialityCatalog) Contains(name string) bool {
	_, ok := c.groups[Normalize(name)]
	return ok
}

func (c *SpecialityCatalog) Group(name string) (string, bool) {
	group, ok := c.groups[Normalize(name)]
	return group, ok
}

// Filter returns the specialties starting with input, ignoring case and
// surrounding blanks. Blank input yields no suggestion.
func (c *SpecialityCatalog) Filter(input string) []string {
	prefix := lower(Normalize(input))
	matches := []string{}
	if prefix == "" {
		return matches
	}

	for i, l := range c.lower {
		if strings.HasPrefix(l, prefix) {
			matches = append(matches, c.names[i])
		}
	}
	return matches
}

// Normalize trims s and puts it in NFC form
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Capitalize upper-cases the first letter of s and lower-cases the rest
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.French).String(s[:size]) + lower(s[size:])
}

func lower(s string) string {
	return cases.Lower(language.French).String(s)
}
