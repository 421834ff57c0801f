package database

import (
	"strings"

	"github.com/bachngocs/support-chatbot-be/types"
)

// ScoreEntry rates how well an entry matches a query. All comparisons are
// case-insensitive and the bonuses are additive:
//
//	+100 key equals the query, else +50 key contains it
//	+40  any tag equals the query
//	+20  value contains the query
//	+10  per (query word, key word) pair where one contains the other
//
// A score of 0 means no match. The stacking is deliberately crude and the
// rest of the system depends on the exact ordering it produces, so keep it
// as-is.
func ScoreEntry(entry types.KnowledgeEntry, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	key := strings.ToLower(entry.Key)
	value := strings.ToLower(entry.Value)

	score := 0
	if key == q {
		score += 100
	} else if strings.Contains(key, q) {
		score += 50
	}

	for _, tag := range entry.Tags {
		if strings.ToLower(tag) == q {
			score += 40
			break
		}
	}

	if strings.Contains(value, q) {
		score += 20
	}

	for _, queryWord := range strings.Fields(q) {
		for _, keyWord := range strings.Fields(key) {
			if strings.Contains(keyWord, queryWord) || strings.Contains(queryWord, keyWord) {
				score += 10
			}
		}
	}

	return score
}
