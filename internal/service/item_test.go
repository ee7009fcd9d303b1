package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kep-app/kep/internal/agenda"
	"github.com/kep-app/kep/internal/cache"
	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/utils"
)

const testThreadId = "thread-2026-08-24"

func newItemService(relay *mockRelay) *Item {
	return NewItem(relay, cache.New(time.Minute), &utils.ItemContentValidator{MaxChars: 2000})
}

func TestItemSubmitPublishesSignedEvent(t *testing.T) {
	relay := &mockRelay{}
	svc := newItemService(relay)
	signer := newTestSigner()

	id, err := svc.Submit(context.Background(), signer, domain.ItemCreationData{
		ThreadId: testThreadId,
		Content:  "Discuss the roadmap",
	})

	require.NoError(t, err)
	require.Len(t, relay.published, 1)
	ev := relay.published[0]
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, signer.pk, ev.PubKey)
	assert.Equal(t, "Discuss the roadmap", ev.Content)

	ref, _ := agenda.NewItemTags(ev.Tags).ThreadRef()
	assert.Equal(t, testThreadId, ref)
}

func TestItemSubmitValidation(t *testing.T) {
	relay := &mockRelay{}
	svc := newItemService(relay)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t"},
		{"too long", strings.Repeat("x", 2001)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), newTestSigner(), domain.ItemCreationData{
				ThreadId: testThreadId,
				Content:  tc.content,
			})
			assert.Error(t, err)
		})
	}
	assert.Empty(t, relay.published)
}

func TestItemListSortsAndCaches(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	queries := 0
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		queries++
		return []*nostr.Event{
			signedItem(sk, testThreadId, "older, no priority", 100),
			signedItem(sk, testThreadId, "newer, no priority", 200),
			signedItem(sk, testThreadId, "prioritized", 50, nostr.Tag{"priority", "1"}),
		}, nil
	}}
	svc := newItemService(relay)

	items, err := svc.List(context.Background(), testThreadId)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "prioritized", items[0].Content)
	assert.Equal(t, "newer, no priority", items[1].Content)
	assert.Equal(t, "older, no priority", items[2].Content)

	_, err = svc.List(context.Background(), testThreadId)
	require.NoError(t, err)
	assert.Equal(t, 1, queries)
}

func TestItemListReducesModerationCopies(t *testing.T) {
	submitterSk := nostr.GeneratePrivateKey()
	adminSk := nostr.GeneratePrivateKey()

	original := signedItem(submitterSk, testThreadId, "ship the feature", 100)
	moderated := signedItem(adminSk, testThreadId, "ship the feature", 200,
		nostr.Tag{"e", original.ID},
		nostr.Tag{"priority", "2"},
		nostr.Tag{"starred", "true"},
	)

	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{moderated, original}, nil
	}}
	svc := newItemService(relay)

	items, err := svc.List(context.Background(), testThreadId)
	require.NoError(t, err)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, original.ID, item.Id)
	// attribution stays with the submitter, not the moderator
	require.NotNil(t, item.SubmittedBy)
	assert.Equal(t, original.PubKey, item.SubmittedBy.Pubkey)
	assert.Equal(t, int64(100), item.CreatedAt)
	// moderation state comes from the newest copy
	require.NotNil(t, item.Priority)
	assert.Equal(t, 2, *item.Priority)
	assert.True(t, item.Starred)
}

func TestItemUpdateRepublishesWithSourceRef(t *testing.T) {
	submitterSk := nostr.GeneratePrivateKey()
	original := signedItem(submitterSk, testThreadId, "fix the login bug", 100)

	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{original}, nil
	}}
	svc := newItemService(relay)

	priority := 1
	starred := true
	err := svc.Update(context.Background(), newTestSigner(), testThreadId, original.ID, domain.ItemUpdate{
		Priority: &priority,
		Starred:  &starred,
	})

	require.NoError(t, err)
	require.Len(t, relay.published, 1)
	copyEv := relay.published[0]
	tags := agenda.NewItemTags(copyEv.Tags)

	ref, ok := tags.SourceRef()
	require.True(t, ok)
	assert.Equal(t, original.ID, ref)
	assert.Equal(t, original.Content, copyEv.Content)

	p, _ := tags.Priority()
	assert.Equal(t, "1", p)
	assert.True(t, tags.Starred())
}

func TestItemUpdateMergesWithExistingModeration(t *testing.T) {
	submitterSk := nostr.GeneratePrivateKey()
	adminSk := nostr.GeneratePrivateKey()
	original := signedItem(submitterSk, testThreadId, "hire a designer", 100)
	moderated := signedItem(adminSk, testThreadId, "hire a designer", 200,
		nostr.Tag{"e", original.ID},
		nostr.Tag{"priority", "3"},
	)

	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{original, moderated}, nil
	}}
	svc := newItemService(relay)

	starred := true
	err := svc.Update(context.Background(), newTestSigner(), testThreadId, original.ID, domain.ItemUpdate{Starred: &starred})

	require.NoError(t, err)
	require.Len(t, relay.published, 1)
	tags := agenda.NewItemTags(relay.published[0].Tags)

	// priority untouched by a starred-only update
	p, _ := tags.Priority()
	assert.Equal(t, "3", p)
	assert.True(t, tags.Starred())

	ref, _ := tags.SourceRef()
	assert.Equal(t, original.ID, ref)
}

func TestItemUpdateNotFound(t *testing.T) {
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return nil, nil
	}}
	svc := newItemService(relay)

	starred := true
	err := svc.Update(context.Background(), newTestSigner(), testThreadId, "deadbeef", domain.ItemUpdate{Starred: &starred})

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemGrouped(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{
			signedItem(sk, testThreadId, "new feature proposal", 100),
			signedItem(sk, testThreadId, "weekend plans", 200),
		}, nil
	}}
	svc := newItemService(relay)

	items, err := svc.List(context.Background(), testThreadId)
	require.NoError(t, err)
	groups := svc.Grouped(items)

	require.Len(t, groups, 2)
	assert.Equal(t, "Product & Features", groups[0].Title)
	assert.Equal(t, "Other Topics", groups[1].Title)
}

func TestItemExportMarkdown(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{
			signedItem(sk, testThreadId, "second", 100),
			signedItem(sk, testThreadId, "first", 200),
		}, nil
	}}
	svc := newItemService(relay)

	items, err := svc.List(context.Background(), testThreadId)
	require.NoError(t, err)
	out, err := svc.Export(items, "markdown")

	require.NoError(t, err)
	assert.Contains(t, out, "# Meeting Agenda")
	assert.Contains(t, out, "1. first")
	assert.Contains(t, out, "2. second")
}

func TestItemSubmitInvalidatesListCache(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	queries := 0
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		queries++
		return []*nostr.Event{signedItem(sk, testThreadId, "existing", 100)}, nil
	}}
	svc := newItemService(relay)

	_, err := svc.List(context.Background(), testThreadId)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), newTestSigner(), domain.ItemCreationData{
		ThreadId: testThreadId,
		Content:  "fresh item",
	})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), testThreadId)
	require.NoError(t, err)
	assert.Equal(t, 2, queries)
}
