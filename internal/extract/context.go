package extract

import (
	"regexp"
	"sort"
	"strings"
)

// numericAmountPattern matches currency-looking numbers: a currency cue
// followed by digits, a separator-grouped number, or a decimal number.
// Bare integers (street numbers, times) deliberately do not match.
var numericAmountPattern = regexp.MustCompile(
	`(?:₹|rs\.?|inr)\s*[0-9][0-9,]*(?:\.[0-9]+)?|\b[0-9]{1,3}(?:,[0-9]{2,3})+(?:\.[0-9]+)?\b|\b[0-9]+\.[0-9]{1,2}\b`)

// ContextDetection is the result of classifying one message.
type ContextDetection struct {
	IsFinancial     bool
	Confidence      float64
	MatchedKeywords []string
}

// ContextDetector is the gatekeeper deciding whether a message describes a
// monetary transaction at all. It is pure and safe for concurrent use.
type ContextDetector struct {
	keywords *Keywords
}

// NewContextDetector creates a detector over the given keyword sets.
func NewContextDetector(kw *Keywords) *ContextDetector {
	return &ContextDetector{keywords: kw}
}

// Classify scores the text for financial context. Confidence is built up
// from four independent evidence signals and capped at 1.0:
//
//	0.2  any keyword present
//	0.3  a debit or credit keyword present
//	0.3  an amount keyword present or a numeric amount pattern matches
//	0.2  an account keyword present
//
// The message is financial iff at least one keyword matched and confidence
// is at least 0.3. Empty or whitespace-only text never classifies.
func (d *ContextDetector) Classify(text string) ContextDetection {
	if strings.TrimSpace(text) == "" {
		return ContextDetection{}
	}

	normalized := NormalizeText(text)

	creditMatches, _ := matchSet(normalized, d.keywords.Credit)
	debitMatches, _ := matchSet(normalized, d.keywords.Debit)
	amountMatches, _ := matchSet(normalized, d.keywords.Amount)
	accountMatches, _ := matchSet(normalized, d.keywords.Account)
	generalMatches, _ := matchSet(normalized, d.keywords.General)

	seen := make(map[string]struct{})
	var matched []string
	for _, group := range [][]string{creditMatches, debitMatches, amountMatches, accountMatches, generalMatches} {
		for _, k := range group {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			matched = append(matched, k)
		}
	}
	sort.Strings(matched)

	confidence := 0.0
	if len(matched) > 0 {
		confidence += 0.2
	}
	if len(creditMatches) > 0 || len(debitMatches) > 0 {
		confidence += 0.3
	}
	if len(amountMatches) > 0 || numericAmountPattern.MatchString(normalized) {
		confidence += 0.3
	}
	if len(accountMatches) > 0 {
		confidence += 0.2
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return ContextDetection{
		IsFinancial:     len(matched) > 0 && confidence >= 0.3,
		Confidence:      confidence,
		MatchedKeywords: matched,
	}
}
