// Package extract provides the leaf extractors that turn unstructured
// message text into transaction fields: financial-context detection,
// amount, transaction type, account identifier, and date/time.
package extract

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedKeywords []byte

// Keywords holds the five keyword evidence sets used across the extractors.
//
// Keywords should be loaded via LoadEmbedded or LoadFromFile, both of which
// validate that no set is empty. Direct struct construction bypasses
// validation; fields are exported for YAML unmarshaling and testing.
type Keywords struct {
	Credit  []string `yaml:"credit"`
	Debit   []string `yaml:"debit"`
	Amount  []string `yaml:"amount"`
	Account []string `yaml:"account"`
	General []string `yaml:"general"`
}

// LoadEmbedded loads the built-in keyword sets compiled into the binary.
func LoadEmbedded() (*Keywords, error) {
	return parseKeywords(embeddedKeywords)
}

// LoadFromFile loads keyword sets from a YAML file, replacing the built-in
// sets entirely.
func LoadFromFile(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}
	kw, err := parseKeywords(data)
	if err != nil {
		return nil, fmt.Errorf("invalid keywords file %s: %w", path, err)
	}
	return kw, nil
}

func parseKeywords(data []byte) (*Keywords, error) {
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("failed to parse keywords: %w", err)
	}

	sets := map[string][]string{
		"credit":  kw.Credit,
		"debit":   kw.Debit,
		"amount":  kw.Amount,
		"account": kw.Account,
		"general": kw.General,
	}
	for name, set := range sets {
		if len(set) == 0 {
			return nil, fmt.Errorf("keyword set %q is empty", name)
		}
		for i, k := range set {
			if strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("keyword set %q has empty entry at index %d", name, i)
			}
		}
	}

	// Normalize all sets once so matching never has to
	kw.Credit = normalizeAll(kw.Credit)
	kw.Debit = normalizeAll(kw.Debit)
	kw.Amount = normalizeAll(kw.Amount)
	kw.Account = normalizeAll(kw.Account)
	kw.General = normalizeAll(kw.General)

	return &kw, nil
}

func normalizeAll(set []string) []string {
	out := make([]string, len(set))
	for i, k := range set {
		out[i] = NormalizeText(k)
	}
	return out
}

// NormalizeText lowercases text and strips unicode combining marks so that
// keyword matching is stable regardless of how the sender encoded the
// message. The currency symbol ₹ is preserved.
func NormalizeText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, text)
	if err != nil {
		// Fall back to the raw text; matching is best-effort
		normalized = text
	}
	return strings.ToLower(normalized)
}

// matchSet returns the keywords from set that occur in normalized text and
// the byte index of the earliest occurrence, or -1 when nothing matched.
func matchSet(normalized string, set []string) (matched []string, first int) {
	first = -1
	for _, k := range set {
		idx := indexOfKeyword(normalized, k)
		if idx < 0 {
			continue
		}
		matched = append(matched, k)
		if first == -1 || idx < first {
			first = idx
		}
	}
	return matched, first
}

// indexOfKeyword finds the first occurrence of keyword in normalized text
// that sits on a word boundary. A boundary check only applies on sides where
// the keyword itself starts or ends with a letter or digit, so "a/c" and
// "rs." still match next to punctuation. Returns -1 when absent.
func indexOfKeyword(normalized, keyword string) int {
	if keyword == "" {
		return -1
	}
	runes := []rune(keyword)
	checkLeft := isWordRune(runes[0])
	checkRight := isWordRune(runes[len(runes)-1])

	for from := 0; ; {
		rel := strings.Index(normalized[from:], keyword)
		if rel < 0 {
			return -1
		}
		idx := from + rel

		leftOK := !checkLeft || idx == 0 || !isWordRune(lastRuneBefore(normalized, idx))
		end := idx + len(keyword)
		rightOK := !checkRight || end >= len(normalized) || !isWordRune(firstRuneAt(normalized, end))

		if leftOK && rightOK {
			return idx
		}
		from = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lastRuneBefore(s string, idx int) rune {
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return r
}

func firstRuneAt(s string, idx int) rune {
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return r
}
