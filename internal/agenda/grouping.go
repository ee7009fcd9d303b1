package agenda

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kep-app/kep/internal/domain"
)

// Keyword bucketing below is a placeholder for a future content
// classification service; it is deliberately dumb. Bucket titles and
// their precedence are part of the output contract and must not
// change.

var punctuation = regexp.MustCompile(`[.,/#!$%^&*;:{}=\-_` + "`" + `~()]`)

type bucket struct {
	title    string
	keywords []string
}

// First matching bucket wins, in this order.
var buckets = []bucket{
	{"Product & Features", []string{"feature", "product", "roadmap"}},
	{"Bugs & Issues", []string{"bug", "fix", "issue"}},
	{"Team & Hiring", []string{"team", "hire", "staff"}},
	{"Customer Feedback", []string{"customer", "user", "client"}},
	{"Timelines & Scheduling", []string{"timeline", "deadline", "schedule"}},
	{"Budget & Finances", []string{"budget", "cost", "expense"}},
	{"Marketing & Announcements", []string{"announce", "marketing", "launch"}},
}

const fallbackBucket = "Other Topics"

func classify(content string) string {
	content = punctuation.ReplaceAllString(strings.ToLower(content), "")
	for _, b := range buckets {
		for _, kw := range b.keywords {
			if strings.Contains(content, kw) {
				return b.title
			}
		}
	}
	return fallbackBucket
}

// GroupSimilarItems buckets items by keyword. Output follows the fixed
// bucket precedence, empty buckets omitted, the fallback bucket last.
func GroupSimilarItems(items []domain.AgendaItem) []domain.ItemGroup {
	grouped := make(map[string][]domain.AgendaItem)
	for _, item := range items {
		title := classify(item.Content)
		grouped[title] = append(grouped[title], item)
	}

	var groups []domain.ItemGroup
	for _, b := range buckets {
		if members, ok := grouped[b.title]; ok {
			groups = append(groups, domain.ItemGroup{Title: b.title, Items: members})
		}
	}
	if members, ok := grouped[fallbackBucket]; ok {
		groups = append(groups, domain.ItemGroup{Title: fallbackBucket, Items: members})
	}
	return groups
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "a", "to", "in", "of", "for", "is", "on", "that", "with",
		"this", "we", "our", "are", "be", "as", "by", "an", "it", "can", "from",
		"have", "should", "would", "could", "i", "they", "need", "want",
	} {
		stopwords[w] = struct{}{}
	}
}

// SuggestGroupTitle proposes a title from the three most frequent
// non-stopwords across the items. Placeholder, same as the grouping.
func SuggestGroupTitle(items []domain.AgendaItem) string {
	frequency := make(map[string]int)
	var order []string
	for _, item := range items {
		content := punctuation.ReplaceAllString(strings.ToLower(item.Content), "")
		for _, word := range strings.Fields(content) {
			if len(word) <= 3 {
				continue
			}
			if _, common := stopwords[word]; common {
				continue
			}
			if frequency[word] == 0 {
				order = append(order, word)
			}
			frequency[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return frequency[order[i]] > frequency[order[j]]
	})
	if len(order) > 3 {
		order = order[:3]
	}

	if len(order) == 0 {
		return "Discussion Topics"
	}
	for i, word := range order {
		order[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(order, " & ")
}

var firstSentence = regexp.MustCompile(`^.*?[.!?](\s|$)`)

// SummarizeItems joins the first sentence (or first 100 chars) of each
// item into one paragraph. Placeholder for a summarization service.
func SummarizeItems(items []domain.AgendaItem) string {
	if len(items) == 0 {
		return ""
	}

	summaries := make([]string, 0, len(items))
	for _, item := range items {
		if match := firstSentence.FindString(item.Content); match != "" {
			summaries = append(summaries, strings.TrimSpace(match))
			continue
		}
		summary := item.Content
		if len(summary) > 100 {
			summary = summary[:100] + "..."
		}
		summaries = append(summaries, summary)
	}
	return strings.Join(summaries, " ")
}
