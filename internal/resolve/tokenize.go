// Package resolve links hub companies to register entries by token-set
// similarity of their names.
package resolve

import (
	"slices"
	"strings"
	"unicode"
)

// legalBoilerplate holds corporate words that carry no identity.
var legalBoilerplate = map[string]bool{
	"limited": true, "ltd": true, "plc": true, "llp": true, "lp": true,
	"the": true, "uk": true, "inc": true, "co": true, "corp": true,
	"group": true, "holdings": true, "international": true, "worldwide": true,
}

// TokenDelimiter joins sorted tokens in report columns.
const TokenDelimiter = " | "

// TokenSet is the normalized set of distinctive words in a company name.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens.
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Tokenize normalizes name into its token set. Blank input yields an empty
// set; it never fails.
//
//  1. Lower-case
//  2. Split into Unicode word runs (letters, digits, underscore)
//  3. Drop runs that are legal boilerplate words
//  4. Replace anything outside [a-z0-9] with a space
//  5. Split on whitespace, keeping single-character tokens
func Tokenize(name string) TokenSet {
	if strings.TrimSpace(name) == "" {
		return TokenSet{}
	}

	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !isWordRune(r)
	})
	var b strings.Builder
	for _, w := range words {
		if legalBoilerplate[w] {
			continue
		}
		b.WriteString(strings.Map(asciiOrSpace, w))
		b.WriteByte(' ')
	}
	return NewTokenSet(strings.Fields(b.String())...)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

func asciiOrSpace(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return r
	}
	return ' '
}

// Len returns the number of tokens.
func (s TokenSet) Len() int { return len(s) }

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// String renders the set as sorted tokens joined by TokenDelimiter.
func (s TokenSet) String() string {
	return strings.Join(s.Sorted(), TokenDelimiter)
}
