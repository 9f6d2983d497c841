package dialog

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/careline/careline/pkg/models"
)

const (
	// acceptScore is the similarity floor for words longer than
	// shortWordLen runes; acceptScoreShort applies to the rest. Short
	// strings saturate similarity scores trivially, so the bar is
	// lowered only slightly, not removed.
	acceptScore      = 80
	acceptScoreShort = 70
	shortWordLen     = 3
)

// Score returns a 0..100 similarity between an input word and a
// keyword: the maximum of the full-string ratio, the best-aligned
// substring ratio and the token-order-insensitive ratio. Taking the max
// lets short inputs match a keyword via substring containment even when
// the overall edit distance is high, and vice versa. All three measures
// are symmetric in their arguments.
func Score(word, keyword string) int {
	word = normalizeWord(word)
	keyword = normalizeWord(keyword)

	best := fuzzy.Ratio(word, keyword)
	if partial := fuzzy.PartialRatio(word, keyword); partial > best {
		best = partial
	}
	if tokenSort := fuzzy.TokenSortRatio(word, keyword); tokenSort > best {
		best = tokenSort
	}
	return best
}

func acceptThreshold(word string) int {
	if len([]rune(word)) > shortWordLen {
		return acceptScore
	}
	return acceptScoreShort
}

// Match is a fuzzy keyword hit.
type Match struct {
	Keyword string
	Intent  models.Intent
	Score   int
}

// BestFuzzyMatch scans the index for the keyword most similar to word.
// Only scores clearing the length-adaptive threshold are considered.
// Ties resolve to the first keyword in the index's sorted iteration
// order; a later keyword replaces the best match only on a strictly
// higher score.
func BestFuzzyMatch(idx *KeywordIndex, word string) (Match, bool) {
	threshold := acceptThreshold(word)
	best := Match{Score: -1}
	for _, keyword := range idx.Keywords() {
		score := Score(word, keyword)
		if score < threshold {
			continue
		}
		if score > best.Score {
			best = Match{Keyword: keyword, Score: score}
		}
	}
	if best.Score < 0 {
		return Match{}, false
	}
	best.Intent, _ = idx.Lookup(best.Keyword)
	return best, true
}
