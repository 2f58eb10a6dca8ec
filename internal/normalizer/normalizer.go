// Package normalizer turns raw article text into the normalized token stream
// consumed by the vocabulary and encoding stages.
//
// Normalization must be deterministic for a given rule set: the rest of the
// pipeline depends on being able to replay it and get identical tokens. The
// reference implementation here is a bag-of-words normalizer; richer
// linguistic rules (lemmatization, language detection) can be plugged in
// behind the same interface.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer converts raw text into an ordered token sequence. The
// transformation is a total function over strings: empty or non-linguistic
// input yields an empty slice, never an error.
type Normalizer interface {
	// Normalize tokenizes and normalizes raw text. Deterministic for a fixed
	// rule set; safe on arbitrary input.
	Normalize(raw string) []string

	// RuleSet reports the configuration the normalizer is running with, so
	// that preprocessed content can be traced back to the rules that
	// produced it.
	RuleSet() RuleSet
}

// RuleSet enumerates the configurable normalization rules. It is plain data
// so it can be loaded from the pipeline's YAML configuration.
type RuleSet struct {
	Name          string   `yaml:"name"`
	Version       string   `yaml:"version"`
	FoldCase      bool     `yaml:"fold_case"`
	Stopwords     []string `yaml:"stopwords"`
	StripSuffixes []string `yaml:"strip_suffixes"`
	MinTokenLen   int      `yaml:"min_token_len"`
}

// DefaultRuleSet returns the rule set used when no configuration overrides
// it: NFKC folding, lowercasing, a small English stop-word list, and
// possessive stripping.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Name:     "bow-en",
		Version:  "1",
		FoldCase: true,
		Stopwords: []string{
			"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
			"from", "has", "have", "he", "her", "his", "i", "if", "in", "is",
			"it", "its", "not", "of", "on", "or", "she", "that", "the",
			"their", "they", "this", "to", "was", "were", "will", "with",
		},
		StripSuffixes: []string{"'s", "’s"},
		MinTokenLen:   1,
	}
}

// BagOfWords is the reference Normalizer. It folds the text to NFKC form,
// scans letter/digit runs as tokens, lowercases them, strips configured
// suffixes, and drops stop words and short tokens.
type BagOfWords struct {
	rules RuleSet
	stop  map[string]struct{}
}

// New creates a BagOfWords normalizer for the given rule set.
func New(rules RuleSet) *BagOfWords {
	stop := make(map[string]struct{}, len(rules.Stopwords))
	for _, w := range rules.Stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &BagOfWords{rules: rules, stop: stop}
}

// NewDefault creates a BagOfWords normalizer with DefaultRuleSet.
func NewDefault() *BagOfWords {
	return New(DefaultRuleSet())
}

// RuleSet reports the active rule configuration.
func (n *BagOfWords) RuleSet() RuleSet {
	return n.rules
}

// Normalize implements the Normalizer contract.
func (n *BagOfWords) Normalize(raw string) []string {
	if raw == "" {
		return []string{}
	}

	folded := norm.NFKC.String(raw)

	tokens := make([]string, 0, len(folded)/6)
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := current.String()
		current.Reset()

		if n.rules.FoldCase {
			token = strings.ToLower(token)
		}
		for _, suffix := range n.rules.StripSuffixes {
			token = strings.TrimSuffix(token, suffix)
		}
		if len([]rune(token)) < n.rules.MinTokenLen {
			return
		}
		if _, ok := n.stop[token]; ok {
			return
		}
		tokens = append(tokens, token)
	}

	for _, r := range folded {
		// Apostrophes stay inside a token so possessive stripping can see
		// them; everything else non-alphanumeric is a token boundary.
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}
