package search

import (
	"regexp"
	"strings"
)

// IntentType is the classified shape of a query.
type IntentType string

const (
	// IntentWildcard means the query carries no discriminating text and the
	// caller wants an enumeration.
	IntentWildcard IntentType = "wildcard"

	// IntentTechnicalIdentifier means the query looks like an opaque id
	// (UUID, hash, token) with no natural-language content.
	IntentTechnicalIdentifier IntentType = "technical_identifier"

	// IntentSemanticSearch means the query is free text and benefits from
	// similarity search on top of exact matching.
	IntentSemanticSearch IntentType = "semantic_search"
)

// Intent is the classification of one query. Produced fresh per query,
// never persisted.
type Intent struct {
	Type IntentType

	// Confidence is the classifier's certainty in [0,1]. It only has to be
	// good enough to drive channel selection.
	Confidence float64

	// NormalizedQuery is the trimmed, case-folded form used by downstream
	// channels.
	NormalizedQuery string

	// IsSpecialPattern flags queries containing characters that would break
	// a literal-text index query if not escaped.
	IsSpecialPattern bool

	// RequiresExactMatch is set for identifier-shaped queries, where
	// similarity search is wasted work.
	RequiresExactMatch bool
}

var (
	// uuidPattern matches canonical UUIDs.
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// hexTokenPattern matches fixed-length hex digests (content hashes,
	// short ids).
	hexTokenPattern = regexp.MustCompile(`^[0-9a-fA-F]{16,64}$`)

	// opaqueTokenPattern matches single machine-generated tokens: no
	// whitespace, at least one digit, long enough that it is not a word.
	opaqueTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_:./-]{12,128}$`)

	// wildcardOnlyPattern matches queries made of nothing but wildcard
	// syntax.
	wildcardOnlyPattern = regexp.MustCompile(`^[*%?\s]+$`)

	hasDigitPattern = regexp.MustCompile(`[0-9]`)
)

// specialPatternChars are characters that carry meaning in LIKE/fulltext
// index queries and must be escaped for literal matching.
const specialPatternChars = "%_*?[](){}\"'\\"

// stopWords is a small english stop-word list used only to judge how
// sentence-like a query is.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "how": {}, "in": {},
	"is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "why": {}, "with": {},
}

// Classify inspects raw query text and returns a best-effort Intent.
// It is a pure function: no I/O, no failure mode.
func Classify(query string) Intent {
	trimmed := strings.TrimSpace(query)
	normalized := strings.ToLower(trimmed)

	intent := Intent{
		NormalizedQuery:  normalized,
		IsSpecialPattern: strings.ContainsAny(trimmed, specialPatternChars),
	}

	// Rule 1: nothing to discriminate on.
	if trimmed == "" || wildcardOnlyPattern.MatchString(trimmed) {
		intent.Type = IntentWildcard
		intent.Confidence = 1.0
		intent.IsSpecialPattern = false
		return intent
	}

	// Rule 2: identifier-shaped queries gain nothing from similarity search.
	if confidence, ok := identifierConfidence(trimmed); ok {
		intent.Type = IntentTechnicalIdentifier
		intent.Confidence = confidence
		intent.RequiresExactMatch = true
		return intent
	}

	// Rule 3: free text. Confidence scales with how sentence-like it is.
	intent.Type = IntentSemanticSearch
	intent.Confidence = semanticConfidence(normalized)
	return intent
}

// identifierConfidence reports whether the query matches a technical
// identifier shape, and how confidently.
func identifierConfidence(query string) (float64, bool) {
	switch {
	case uuidPattern.MatchString(query):
		return 0.98, true
	case hexTokenPattern.MatchString(query):
		return 0.95, true
	case opaqueTokenPattern.MatchString(query) && hasDigitPattern.MatchString(query):
		// Mixed letter/digit tokens like "rec_01J8ZT4Q6R" or "node-1842".
		return 0.9, true
	}
	return 0, false
}

// semanticConfidence scores how sentence-like the text is: more tokens and
// the presence of stop-words both push it up.
func semanticConfidence(normalized string) float64 {
	tokens := strings.Fields(normalized)

	confidence := 0.5
	if len(tokens) >= 2 {
		confidence += 0.1
	}
	if len(tokens) >= 4 {
		confidence += 0.1
	}
	for _, token := range tokens {
		if _, ok := stopWords[token]; ok {
			confidence += 0.2
			break
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
