package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// numericCandidate matches digit groups with optional thousands separators
// and decimals. Both 1,234,567.89 and the Indian 1,23,456.78 grouping are
// accepted.
var numericCandidate = regexp.MustCompile(`[0-9]+(?:,[0-9]{2,3})*(?:\.[0-9]+)?`)

// currencyTokens are the cues that bind a number to a transaction amount.
var currencyTokens = []string{"₹", "rs.", "rs", "inr"}

// Amount is an extracted monetary amount. HasCurrencyCue reports whether the
// chosen candidate sat adjacent to a currency symbol or amount keyword,
// which feeds the orchestrator's confidence score.
type Amount struct {
	Value          float64
	HasCurrencyCue bool
}

// AmountParser extracts a monetary amount from free text. It handles plain
// digits with separators, worded amounts ("One Thousand"), and
// currency-prefixed forms. Pure and safe for concurrent use.
type AmountParser struct {
	keywords *Keywords
}

// NewAmountParser creates an amount parser over the given keyword sets.
func NewAmountParser(kw *Keywords) *AmountParser {
	return &AmountParser{keywords: kw}
}

// Extract returns the primary amount in the text, if any. When several
// candidates appear, the first one adjacent to a currency cue wins;
// otherwise the leftmost candidate. Worded amounts are only considered when
// no numeric candidate exists.
func (p *AmountParser) Extract(text string) (Amount, bool) {
	normalized := NormalizeText(text)

	if amt, ok := p.extractNumeric(normalized); ok {
		return amt, true
	}
	return p.extractWorded(normalized)
}

func (p *AmountParser) extractNumeric(normalized string) (Amount, bool) {
	locs := numericCandidate.FindAllStringIndex(normalized, -1)

	type candidate struct {
		value float64
		cued  bool
	}
	var candidates []candidate

	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if embeddedInToken(normalized, start) || looksLikeDatePart(normalized, start, end) {
			continue
		}

		raw := strings.ReplaceAll(normalized[start:end], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			continue
		}

		candidates = append(candidates, candidate{
			value: value,
			cued:  p.hasCueNear(normalized, start, end),
		})
	}

	if len(candidates) == 0 {
		return Amount{}, false
	}

	// Primary amount policy: first cued candidate, else leftmost.
	for _, c := range candidates {
		if c.cued {
			return Amount{Value: c.value, HasCurrencyCue: true}, true
		}
	}
	return Amount{Value: candidates[0].value}, true
}

// embeddedInToken reports whether the digit run at start is glued to a
// preceding letter or digit, e.g. the tail of a masked account "xxxx2323".
func embeddedInToken(s string, start int) bool {
	if start == 0 {
		return false
	}
	return isWordRune(lastRuneBefore(s, start))
}

// looksLikeDatePart reports whether the digit run participates in a
// DD-MM-YYYY / DD/MM/YYYY style token and should not be read as an amount.
func looksLikeDatePart(s string, start, end int) bool {
	if end < len(s) && (s[end] == '-' || s[end] == '/') && end+1 < len(s) && isWordRune(firstRuneAt(s, end+1)) {
		return true
	}
	if start >= 2 && (s[start-1] == '-' || s[start-1] == '/') && isWordRune(lastRuneBefore(s, start-1)) {
		return true
	}
	return false
}

// hasCueNear checks a small window on either side of the candidate for a
// currency token or amount keyword.
func (p *AmountParser) hasCueNear(s string, start, end int) bool {
	const window = 12

	before := s[maxInt(0, start-window):start]
	after := s[end:minInt(len(s), end+window)]

	for _, tok := range currencyTokens {
		if indexOfKeyword(before, tok) >= 0 || indexOfKeyword(after, tok) >= 0 {
			return true
		}
	}
	for _, k := range p.keywords.Amount {
		if indexOfKeyword(before, k) >= 0 || indexOfKeyword(after, k) >= 0 {
			return true
		}
	}
	return false
}

// Word-to-number grammar: units, teens, tens, and scale words.
var (
	smallNumberWords = map[string]float64{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
		"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
		"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
		"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
		"eighteen": 18, "nineteen": 19,
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
	scaleWords = map[string]float64{
		"thousand": 1_000,
		"lakh":     100_000,
		"lac":      100_000,
		"million":  1_000_000,
		"crore":    10_000_000,
	}
)

func isNumberWord(w string) bool {
	if _, ok := smallNumberWords[w]; ok {
		return true
	}
	if _, ok := scaleWords[w]; ok {
		return true
	}
	return w == "hundred" || w == "and"
}

func (p *AmountParser) extractWorded(normalized string) (Amount, bool) {
	words := splitWords(normalized)

	// Find the first contiguous run of number words and convert it.
	for i := 0; i < len(words); i++ {
		if !isNumberWord(words[i].text) || words[i].text == "and" {
			continue
		}
		j := i
		for j < len(words) && isNumberWord(words[j].text) {
			j++
		}
		value := wordsToNumber(wordTexts(words[i:j]))
		if value > 0 {
			cued := p.hasCueNear(normalized, words[i].start, words[j-1].end)
			return Amount{Value: value, HasCurrencyCue: cued}, true
		}
		i = j
	}
	return Amount{}, false
}

// wordsToNumber folds a run of number words into a value.
// "one thousand five hundred" → 1500, "two lakh" → 200000.
func wordsToNumber(words []string) float64 {
	var total, current float64
	for _, w := range words {
		switch {
		case w == "and":
			// Connective, ignore
		case w == "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
		default:
			if v, ok := smallNumberWords[w]; ok {
				current += v
			} else if scale, ok := scaleWords[w]; ok {
				if current == 0 {
					current = 1
				}
				total += current * scale
				current = 0
			}
		}
	}
	return total + current
}

type word struct {
	text       string
	start, end int
}

func splitWords(s string) []word {
	var words []word
	start := -1
	for i, r := range s {
		if r >= 'a' && r <= 'z' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			words = append(words, word{text: s[start:i], start: start, end: i})
			start = -1
		}
	}
	if start != -1 {
		words = append(words, word{text: s[start:], start: start, end: len(s)})
	}
	return words
}

func wordTexts(ws []word) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.text
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
