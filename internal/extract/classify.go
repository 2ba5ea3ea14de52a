package extract

import "github.com/rumor-ml/commons.systems/smsledger/internal/domain"

// TypeClassifier labels a message debit, credit, or unknown from keyword
// evidence. Pure and safe for concurrent use.
type TypeClassifier struct {
	keywords *Keywords
}

// NewTypeClassifier creates a classifier over the given keyword sets.
func NewTypeClassifier(kw *Keywords) *TypeClassifier {
	return &TypeClassifier{keywords: kw}
}

// Classify returns the transaction direction for the text. When both the
// debit and credit sets match, the ambiguity is resolved by score: 10 points
// per matched keyword plus a 5 point bonus for each keyword whose first
// occurrence falls in the first half of the text. A score tie goes to the
// side whose earliest keyword occurs first.
func (c *TypeClassifier) Classify(text string) domain.TransactionType {
	normalized := NormalizeText(text)

	debitMatches, debitFirst := matchSet(normalized, c.keywords.Debit)
	creditMatches, creditFirst := matchSet(normalized, c.keywords.Credit)

	switch {
	case len(debitMatches) > 0 && len(creditMatches) == 0:
		return domain.TypeDebit
	case len(creditMatches) > 0 && len(debitMatches) == 0:
		return domain.TypeCredit
	case len(debitMatches) == 0 && len(creditMatches) == 0:
		return domain.TypeUnknown
	}

	// Both sides matched
	debitScore := c.score(normalized, c.keywords.Debit)
	creditScore := c.score(normalized, c.keywords.Credit)

	switch {
	case debitScore > creditScore:
		return domain.TypeDebit
	case creditScore > debitScore:
		return domain.TypeCredit
	case debitFirst >= 0 && (creditFirst < 0 || debitFirst < creditFirst):
		return domain.TypeDebit
	case creditFirst >= 0:
		return domain.TypeCredit
	default:
		return domain.TypeUnknown
	}
}

// score totals the ambiguity score for one keyword set.
func (c *TypeClassifier) score(normalized string, set []string) int {
	half := len(normalized) / 2
	score := 0
	for _, k := range set {
		idx := indexOfKeyword(normalized, k)
		if idx < 0 {
			continue
		}
		score += 10
		if idx < half {
			score += 5
		}
	}
	return score
}

// Confidence reports certainty for a chosen type, keyed to how many of that
// type's keywords matched: 0 → 0.0, 1 → 0.7, 2 → 0.85, 3 or more → 0.95.
// Unknown always scores 0.
func (c *TypeClassifier) Confidence(text string, txnType domain.TransactionType) float64 {
	var set []string
	switch txnType {
	case domain.TypeDebit:
		set = c.keywords.Debit
	case domain.TypeCredit:
		set = c.keywords.Credit
	default:
		return 0.0
	}

	matched, _ := matchSet(NormalizeText(text), set)
	switch {
	case len(matched) == 0:
		return 0.0
	case len(matched) == 1:
		return 0.7
	case len(matched) == 2:
		return 0.85
	default:
		return 0.95
	}
}
