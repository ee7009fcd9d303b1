package agenda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kep-app/kep/internal/domain"
)

func TestGroupSimilarItemsBuckets(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"We found a bug in login", "Bugs & Issues"},
		{"New feature request from the board", "Product & Features"},
		{"Should we hire another engineer?", "Team & Hiring"},
		{"Customer complained about latency", "Customer Feedback"},
		{"Deadline for Q3 is slipping", "Timelines & Scheduling"},
		{"Budget review for the offsite", "Budget & Finances"},
		{"Launch announcement draft", "Marketing & Announcements"},
		{"Coffee machine broke again", "Other Topics"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			groups := GroupSimilarItems([]domain.AgendaItem{{Content: tc.content}})
			require.Len(t, groups, 1)
			assert.Equal(t, tc.want, groups[0].Title)
		})
	}
}

func TestGroupSimilarItemsPrecedence(t *testing.T) {
	// "fix the product" matches both Product and Bugs keywords;
	// first bucket in the precedence list wins.
	groups := GroupSimilarItems([]domain.AgendaItem{{Content: "fix the product"}})

	require.Len(t, groups, 1)
	assert.Equal(t, "Product & Features", groups[0].Title)
}

func TestGroupSimilarItemsOutputOrder(t *testing.T) {
	items := []domain.AgendaItem{
		{Id: "1", Content: "misc chatter"},
		{Id: "2", Content: "budget overrun"},
		{Id: "3", Content: "login bug"},
		{Id: "4", Content: "roadmap for the product"},
	}

	groups := GroupSimilarItems(items)

	var titles []string
	for _, g := range groups {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{
		"Product & Features",
		"Bugs & Issues",
		"Budget & Finances",
		"Other Topics",
	}, titles)
}

func TestGroupSimilarItemsPunctuationStripped(t *testing.T) {
	groups := GroupSimilarItems([]domain.AgendaItem{{Content: "BUG!!! (critical)"}})

	require.Len(t, groups, 1)
	assert.Equal(t, "Bugs & Issues", groups[0].Title)
}

func TestSuggestGroupTitle(t *testing.T) {
	items := []domain.AgendaItem{
		{Content: "deployment pipeline broke during deployment"},
		{Content: "deployment rollback steps unclear"},
	}

	title := SuggestGroupTitle(items)

	assert.Contains(t, title, "Deployment")
}

func TestSuggestGroupTitleFallback(t *testing.T) {
	assert.Equal(t, "Discussion Topics", SuggestGroupTitle(nil))
	assert.Equal(t, "Discussion Topics", SuggestGroupTitle([]domain.AgendaItem{{Content: "a to be"}}))
}

func TestSummarizeItems(t *testing.T) {
	items := []domain.AgendaItem{
		{Content: "First point. With extra detail nobody reads."},
		{Content: "Second point without terminal punctuation"},
	}

	summary := SummarizeItems(items)

	assert.Equal(t, "First point. Second point without terminal punctuation", summary)
}

func TestSummarizeItemsEmpty(t *testing.T) {
	assert.Equal(t, "", SummarizeItems(nil))
}
