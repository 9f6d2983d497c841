package dialog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/careline/careline/pkg/models"
)

// phoneticVariants maps canonical words to common misspellings and
// sound-alikes. A message token matching a variant resolves to the
// intent of the first indexed keyword containing the canonical word.
var phoneticVariants = map[string][]string{
	"account":  {"acount", "accont", "accnt"},
	"alert":    {"alrt", "allert", "alertt"},
	"balance":  {"balanse", "ballance", "balence"},
	"bill":     {"bil", "bll", "beel"},
	"billing":  {"biling", "billin", "bellin"},
	"data":     {"dta", "daata", "dataa"},
	"internet": {"intrnet", "internt", "inernet"},
	"network":  {"netwrk", "ntwork", "networc"},
	"pay":      {"pai", "pae", "pey"},
	"payment":  {"paymnt", "paymen", "payement"},
	"plan":     {"plann", "pln", "plaan"},
	"upgrade":  {"upgrad", "ugrade", "upgarde"},
	"usage":    {"usege", "usag", "usuage"},
}

// variantToCanonical is the inverted phoneticVariants table.
var variantToCanonical = invertVariants(phoneticVariants)

func invertVariants(variants map[string][]string) map[string]string {
	inverted := make(map[string]string)
	for canonical, words := range variants {
		for _, word := range words {
			inverted[word] = canonical
		}
	}
	return inverted
}

// KeywordIndex is an immutable mapping from normalized keywords to
// intents. It is built once from the rule store and replaced wholesale
// on an explicit refresh.
//
// Keywords are kept in a sorted slice: fuzzy matching iterates that
// slice, so score ties deterministically resolve to the first keyword
// in sorted order.
type KeywordIndex struct {
	keywords []string
	intents  map[string]models.Intent
}

func NewKeywordIndex(entries []models.KeywordEntry) *KeywordIndex {
	intents := make(map[string]models.Intent, len(entries))
	for _, entry := range entries {
		keyword := normalizeWord(entry.Keyword)
		if keyword == "" {
			continue
		}
		if _, exists := intents[keyword]; exists {
			continue
		}
		intents[keyword] = entry.Intent
	}

	keywords := make([]string, 0, len(intents))
	for keyword := range intents {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	return &KeywordIndex{keywords: keywords, intents: intents}
}

// Lookup returns the intent for an exact, case-insensitive whole-token
// match against the indexed keyword set.
func (idx *KeywordIndex) Lookup(word string) (models.Intent, bool) {
	intent, ok := idx.intents[normalizeWord(word)]
	return intent, ok
}

// LookupPhonetic resolves a known misspelling or sound-alike to the
// intent of the first indexed keyword containing its canonical word.
func (idx *KeywordIndex) LookupPhonetic(word string) (models.Intent, bool) {
	canonical, ok := variantToCanonical[normalizeWord(word)]
	if !ok {
		return "", false
	}
	for _, keyword := range idx.keywords {
		if strings.Contains(keyword, canonical) {
			return idx.intents[keyword], true
		}
	}
	return "", false
}

// Keywords returns the indexed keywords in sorted iteration order.
func (idx *KeywordIndex) Keywords() []string {
	return idx.keywords
}

func (idx *KeywordIndex) Len() int {
	return len(idx.keywords)
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// Tokenize splits a message into lowercased word tokens, dropping
// punctuation.
func Tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
