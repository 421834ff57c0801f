package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bachngocs/support-chatbot-be/types"
)

func TestScoreEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry types.KnowledgeEntry
		query string
		want  int
	}{
		{
			name:  "exact key match plus word overlap",
			entry: types.KnowledgeEntry{Key: "Pricing", Value: "See our plans"},
			query: "Pricing",
			// 100 exact + 10 word pair
			want: 110,
		},
		{
			name:  "key substring match",
			entry: types.KnowledgeEntry{Key: "Our Pricing Plans", Value: "Monthly and yearly"},
			query: "pricing",
			// 50 substring + 10 word pair
			want: 60,
		},
		{
			name:  "tag only match",
			entry: types.KnowledgeEntry{Key: "Refunds", Value: "See terms", Tags: []string{"pricing"}},
			query: "pricing",
			want:  40,
		},
		{
			name:  "value substring only",
			entry: types.KnowledgeEntry{Key: "Shipping", Value: "We deliver worldwide"},
			query: "worldwide",
			want:  20,
		},
		{
			name:  "tag bonus stacks on key branch",
			entry: types.KnowledgeEntry{Key: "Pricing", Value: "Plans", Tags: []string{"pricing"}},
			query: "pricing",
			// 100 exact + 40 tag + 10 word pair
			want: 150,
		},
		{
			name:  "tag match is case-insensitive",
			entry: types.KnowledgeEntry{Key: "Returns", Value: "30 days", Tags: []string{"Policy"}},
			query: "policy",
			want:  40,
		},
		{
			name:  "no match",
			entry: types.KnowledgeEntry{Key: "Shipping", Value: "We deliver worldwide", Tags: []string{"logistics"}},
			query: "pricing",
			want:  0,
		},
		{
			name:  "blank query never matches",
			entry: types.KnowledgeEntry{Key: "Shipping", Value: "We deliver worldwide"},
			query: "   ",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreEntry(tt.entry, tt.query))
		})
	}
}

func TestScoreEntryWordOverlapStacks(t *testing.T) {
	entry := types.KnowledgeEntry{Key: "Shipping Costs", Value: "Depends on region"}

	// 50 for the key substring, then +10 for shipping/shipping and +10
	// for cost/costs. The stacking is intentional.
	got := ScoreEntry(entry, "shipping cost")
	assert.Equal(t, 70, got)
}
