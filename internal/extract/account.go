package extract

import "regexp"

// Account identifier candidates, matched against the ORIGINAL text so the
// extracted value keeps its masking and casing verbatim.
var (
	// Mask characters followed by trailing digits: XXXX2323, **1234, xx987
	maskedAccountPattern = regexp.MustCompile(`[Xx*]{2,}[0-9]{2,}`)
	// Plain digit runs long enough to be an account number
	plainAccountPattern = regexp.MustCompile(`[0-9]{4,}`)
)

// AccountExtractor finds an (optionally masked) account identifier in
// message text. Pure and safe for concurrent use.
type AccountExtractor struct {
	keywords *Keywords
}

// NewAccountExtractor creates an account extractor over the given keyword
// sets.
func NewAccountExtractor(kw *Keywords) *AccountExtractor {
	return &AccountExtractor{keywords: kw}
}

// Extract returns the primary account identifier, verbatim, or false when
// none is present. Masked identifiers qualify anywhere in the text; plain
// digit runs qualify only when an account keyword sits just before them,
// which keeps amounts and dates from being read as account numbers. Among
// several candidates the one adjacent to an account keyword wins, otherwise
// the leftmost.
func (e *AccountExtractor) Extract(text string) (string, bool) {
	normalized := NormalizeText(text)

	type candidate struct {
		value    string
		start    int
		adjacent bool
	}
	var candidates []candidate

	for _, loc := range maskedAccountPattern.FindAllStringIndex(text, -1) {
		candidates = append(candidates, candidate{
			value:    text[loc[0]:loc[1]],
			start:    loc[0],
			adjacent: e.keywordBefore(normalized, loc[0]),
		})
	}

	for _, loc := range plainAccountPattern.FindAllStringIndex(text, -1) {
		if embeddedInToken(text, loc[0]) {
			continue
		}
		if !e.keywordBefore(normalized, loc[0]) {
			continue
		}
		candidates = append(candidates, candidate{
			value:    text[loc[0]:loc[1]],
			start:    loc[0],
			adjacent: true,
		})
	}

	if len(candidates) == 0 {
		return "", false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.adjacent && !best.adjacent {
			best = c
			continue
		}
		if c.adjacent == best.adjacent && c.start < best.start {
			best = c
		}
	}
	return best.value, true
}

// keywordBefore checks whether an account keyword occurs in a small window
// before the candidate. Normalization preserves byte offsets for ASCII
// text, which is all the account patterns can match around.
func (e *AccountExtractor) keywordBefore(normalized string, start int) bool {
	const window = 14
	if start > len(normalized) {
		start = len(normalized)
	}
	before := normalized[maxInt(0, start-window):start]
	for _, k := range e.keywords.Account {
		if indexOfKeyword(before, k) >= 0 {
			return true
		}
	}
	return false
}
