// Package normalizers provides text canonicalization for record matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("strip_accents", StripAccents)
	Register("alphanumeric_spaces", AlphanumericSpaces)
	Register("canonical", Normalize)
	Register("nemail", NormalizeEmail)
	Register("nphone", NormalizePhone)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritic marks (Usaquén -> Usaquen)
func StripAccents(s string) string {
	result, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// AlphanumericSpaces collapses every run of non-alphanumeric characters to a
// single space
func AlphanumericSpaces(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			result.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(result.String())
}

// Normalize is the canonical text pipeline used by all matching: accents
// stripped, lowercased, punctuation collapsed to single spaces, trimmed.
// Total and idempotent; "" yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return AlphanumericSpaces(Lowercase(StripAccents(s)))
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// DefaultStopWords are generic institutional words that carry no matching
// signal in voting place names.
var DefaultStopWords = NewStopWordSet(
	"colegio", "instituto", "institucion", "centro", "escuela", "sede",
	"educativo", "educativa", "ied", "de", "del", "la", "el", "los", "las", "y",
)

// StopWordSet is a set of normalized words excluded from tokenization.
type StopWordSet map[string]struct{}

// NewStopWordSet builds a stop word set; entries are normalized first.
func NewStopWordSet(words ...string) StopWordSet {
	set := make(StopWordSet, len(words))
	for _, w := range words {
		if n := Normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the (already normalized) token is a stop word.
func (s StopWordSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Tokenize normalizes s and splits it into its ordered tokens, dropping any
// that appear in stopWords. A nil stopWords keeps everything. Duplicate
// tokens are preserved; callers needing set semantics dedupe themselves.
func Tokenize(s string, stopWords StopWordSet) []string {
	fields := strings.Fields(Normalize(s))
	if stopWords == nil {
		return fields
	}
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stopWords.Contains(f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet returns the unique tokens of s as a set. When stop-word removal
// would empty the set for a non-blank input, the unfiltered tokens are used
// instead so a name made entirely of stop words still matches itself.
func TokenSet(s string, stopWords StopWordSet) map[string]struct{} {
	tokens := Tokenize(s, stopWords)
	if len(tokens) == 0 && stopWords != nil {
		tokens = Tokenize(s, nil)
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// FirstToken returns the first token of the normalized string, or "".
func FirstToken(s string) string {
	fields := strings.Fields(Normalize(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
