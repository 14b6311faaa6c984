package service

import (
	"strings"
	"unicode"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

// QueryClassifier maps a user query to optional metadata filters applied at
// retrieval time. A nil result means search the whole collection.
type QueryClassifier interface {
	Classify(query string) map[string]string
}

// KeywordClassifier routes queries that are plainly about the institute
// itself, rather than a person, to the general-information documents. The
// keyword list is deliberately conservative: a wrong filter hides relevant
// faculty profiles, no filter only costs a little ranking noise.
type KeywordClassifier struct {
	phrases [][]string
}

// NewKeywordClassifier creates a KeywordClassifier with the default keyword
// set.
func NewKeywordClassifier() *KeywordClassifier {
	keywords := []string{
		"about the institute",
		"about the water institute",
		"certificate program",
		"contact the institute",
		"graduate fellows",
		"mission",
		"office hours",
		"phone number",
		"symposium",
		"what is the water institute",
		"where is the water institute",
	}
	phrases := make([][]string, len(keywords))
	for i, kw := range keywords {
		phrases[i] = tokenize(kw)
	}
	return &KeywordClassifier{phrases: phrases}
}

// Classify returns a doc_type filter when the query contains a general-info
// keyword as whole words, nil otherwise. Whole-word matching keeps e.g.
// "commission" from triggering the "mission" keyword.
func (c *KeywordClassifier) Classify(query string) map[string]string {
	words := tokenize(query)
	for _, phrase := range c.phrases {
		if containsPhrase(words, phrase) {
			return map[string]string{schema.MetadataKeyDocType: schema.KindGeneral}
		}
	}
	return nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// NopClassifier never filters. Used when routing is disabled.
type NopClassifier struct{}

// Classify always returns nil.
func (NopClassifier) Classify(string) map[string]string { return nil }
