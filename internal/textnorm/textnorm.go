// Package textnorm normalizes text extracted from PDFs so labels and values compare reliably.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var typographic = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
	"\u2013", "-", "\u2014", "-", "\u2212", "-",
	"\u2026", "...", "\u00a0", " ", "\u00ad", "",
	"\ufb01", "fi", "\ufb02", "fl", "\u2022", "*",
)

// ASCII folds accented letters to their base form and typographic punctuation to ASCII.
// Runes with no ASCII equivalent are kept.
func ASCII(s string) string {
	s = typographic.Replace(s)
	// Transformers carry state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Clean folds to ASCII, turns newlines and runs of whitespace into single spaces and trims.
func Clean(s string) string {
	return strings.Join(strings.Fields(ASCII(s)), " ")
}

// Label cleans s after replacing every occurrence of sep with a space.
func Label(s, sep string) string {
	if sep != "" {
		s = strings.ReplaceAll(s, sep, " ")
	}
	return Clean(s)
}

// Key is the comparison form: all whitespace removed, case folded.
func Key(s string) string {
	var b strings.Builder
	for _, r := range ASCII(s) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return cases.Fold().String(b.String())
}

// Equal compares two labels ignoring case and whitespace.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Contains reports whether sub appears in s ignoring case.
func Contains(s, sub string) bool {
	f := cases.Fold()
	return strings.Contains(f.String(s), f.String(sub))
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Join appends next to acc separated by a single space, skipping empty sides.
func Join(acc, next string) string {
	switch {
	case next == "":
		return acc
	case acc == "":
		return next
	default:
		return acc + " " + next
	}
}
