package service

import (
	"context"
	"strconv"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/agenda"
	"github.com/kep-app/kep/internal/cache"
	"github.com/kep-app/kep/internal/domain"
)

type ItemService interface {
	List(ctx context.Context, threadId domain.ThreadId) ([]domain.AgendaItem, error)
	Submit(ctx context.Context, signer Signer, data domain.ItemCreationData) (domain.ItemId, error)
	Update(ctx context.Context, signer Signer, threadId domain.ThreadId, itemId domain.ItemId, upd domain.ItemUpdate) error
	Grouped(items []domain.AgendaItem) []domain.ItemGroup
	Export(items []domain.AgendaItem, format string) (string, error)
}

type ContentValidator interface {
	Content(content string) error
}

type Item struct {
	relay     RelayClient
	cache     *cache.Cache
	validator ContentValidator
}

func NewItem(relay RelayClient, c *cache.Cache, validator ContentValidator) *Item {
	return &Item{relay: relay, cache: c, validator: validator}
}

// List returns the thread's items, one per logical identity, sorted by
// priority then recency. Moderation copies of an item share the "e"
// source ref with the original; the reduce keeps attribution from the
// original event and moderation state from the newest copy.
func (i *Item) List(ctx context.Context, threadId domain.ThreadId) ([]domain.AgendaItem, error) {
	if v, ok := i.cache.Get(cacheKeyItems(threadId)); ok {
		return v.([]domain.AgendaItem), nil
	}

	events, err := i.relay.Query(ctx, []nostr.Filter{agenda.ItemsFilter(threadId)})
	if err != nil {
		return nil, err
	}

	items := reduceItems(events)
	agenda.SortItems(items)

	i.cache.Set(cacheKeyItems(threadId), items)
	return items, nil
}

// Submit publishes a new item event; the returned id is the logical
// item identity.
func (i *Item) Submit(ctx context.Context, signer Signer, data domain.ItemCreationData) (domain.ItemId, error) {
	if err := i.validator.Content(data.Content); err != nil {
		return "", err
	}

	ev := agenda.EncodeItem(data.ThreadId, data.Content, data.IsAnonymous)
	if err := signer.Sign(ev); err != nil {
		return "", err
	}
	if err := i.relay.Publish(ctx, ev); err != nil {
		return "", err
	}

	i.cache.Invalidate(cacheKeyItems(data.ThreadId))
	return ev.ID, nil
}

// Update publishes a moderation copy of the item carrying the merged
// priority and starred state. The copy keeps the original content and
// anonymity tags and points back at the original via its "e" tag, so
// attribution survives the re-sign by the moderator's key.
func (i *Item) Update(ctx context.Context, signer Signer, threadId domain.ThreadId, itemId domain.ItemId, upd domain.ItemUpdate) error {
	events, err := i.relay.Query(ctx, []nostr.Filter{agenda.ItemsFilter(threadId)})
	if err != nil {
		return err
	}

	latest := latestCopy(events, itemId)
	if latest == nil {
		return ErrItemNotFound
	}

	tags := nostr.Tags{}
	for _, tag := range latest.Tags {
		if len(tag) > 0 {
			switch tag[0] {
			case agenda.TagPriority, agenda.TagStarred, agenda.TagEventRef:
				continue
			}
		}
		tags = append(tags, tag)
	}
	tags = append(tags, nostr.Tag{agenda.TagEventRef, itemId})

	current := agenda.DecodeItem(latest)
	priority := current.Priority
	if upd.Priority != nil {
		priority = upd.Priority
	}
	if priority != nil {
		tags = append(tags, nostr.Tag{agenda.TagPriority, strconv.Itoa(*priority)})
	}

	starred := current.Starred
	if upd.Starred != nil {
		starred = *upd.Starred
	}
	if starred {
		tags = append(tags, nostr.Tag{agenda.TagStarred, "true"})
	}

	ev := &nostr.Event{
		Kind:      agenda.KindTextNote,
		CreatedAt: nostr.Now(),
		Content:   latest.Content,
		Tags:      tags,
	}
	if err := signer.Sign(ev); err != nil {
		return err
	}
	if err := i.relay.Publish(ctx, ev); err != nil {
		return err
	}

	i.cache.Invalidate(cacheKeyItems(threadId))
	return nil
}

// Grouped buckets items by topic. Callers pass the set the viewer is
// allowed to see, so hidden submissions never leak through a grouping.
func (i *Item) Grouped(items []domain.AgendaItem) []domain.ItemGroup {
	return agenda.GroupSimilarItems(items)
}

// Export renders items as "markdown" or "json". Same contract as
// Grouped: the caller filters for visibility first.
func (i *Item) Export(items []domain.AgendaItem, format string) (string, error) {
	if format == "json" {
		return agenda.ExportJSON(items)
	}
	return agenda.ExportMarkdown(items), nil
}

// reduceItems collapses the event set to one item per logical
// identity. The original event (the one without a source ref) supplies
// SubmittedBy, IsAnonymous and CreatedAt; the newest copy supplies
// content, priority and starred.
func reduceItems(events []*nostr.Event) []domain.AgendaItem {
	type copies struct {
		original *nostr.Event
		newest   *nostr.Event
	}
	byIdentity := make(map[domain.ItemId]*copies)
	var order []domain.ItemId

	for _, ev := range events {
		identity := ev.ID
		original := true
		if ref, ok := agenda.NewItemTags(ev.Tags).SourceRef(); ok {
			identity = ref
			original = false
		}

		c, seen := byIdentity[identity]
		if !seen {
			c = &copies{}
			byIdentity[identity] = c
			order = append(order, identity)
		}
		if original {
			c.original = ev
		}
		if c.newest == nil || ev.CreatedAt > c.newest.CreatedAt {
			c.newest = ev
		}
	}

	items := make([]domain.AgendaItem, 0, len(order))
	for _, identity := range order {
		c := byIdentity[identity]
		item := agenda.DecodeItem(c.newest)
		item.Id = identity
		if c.original != nil {
			base := agenda.DecodeItem(c.original)
			item.SubmittedBy = base.SubmittedBy
			item.IsAnonymous = base.IsAnonymous
			item.CreatedAt = base.CreatedAt
		}
		items = append(items, item)
	}
	return items
}

// latestCopy finds the newest event for a logical item id, or nil.
func latestCopy(events []*nostr.Event, itemId domain.ItemId) *nostr.Event {
	var latest *nostr.Event
	for _, ev := range events {
		identity := ev.ID
		if ref, ok := agenda.NewItemTags(ev.Tags).SourceRef(); ok {
			identity = ref
		}
		if identity != itemId {
			continue
		}
		if latest == nil || ev.CreatedAt > latest.CreatedAt {
			latest = ev
		}
	}
	return latest
}
