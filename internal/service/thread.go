package service

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/agenda"
	"github.com/kep-app/kep/internal/cache"
	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/logger"
)

type ThreadService interface {
	Current(ctx context.Context) (domain.AgendaThread, error)
	EnsureCurrent(ctx context.Context, signer Signer) (domain.AgendaThread, error)
	Create(ctx context.Context, signer Signer, data domain.ThreadCreationData) (domain.ThreadId, error)
	Update(ctx context.Context, signer Signer, threadId domain.ThreadId, upd domain.ThreadUpdate) error
}

type ThreadValidator interface {
	Title(title string) error
}

type ConfigProvider interface {
	Config(ctx context.Context) (domain.AdminConfig, error)
}

type Thread struct {
	relay     RelayClient
	cache     *cache.Cache
	validator ThreadValidator
	config    ConfigProvider
	now       func() time.Time
}

func NewThread(relay RelayClient, c *cache.Cache, validator ThreadValidator, config ConfigProvider) *Thread {
	return &Thread{relay: relay, cache: c, validator: validator, config: config, now: time.Now}
}

// Current returns the newest agenda thread. Replaceable copies of the
// same thread identifier are reduced to the latest created_at before
// decoding; ErrThreadNotFound signals the empty relay set.
func (t *Thread) Current(ctx context.Context) (domain.AgendaThread, error) {
	if v, ok := t.cache.Get(cacheKeyCurrentThread); ok {
		return v.(domain.AgendaThread), nil
	}

	events, err := t.relay.Query(ctx, []nostr.Filter{agenda.ThreadFilter()})
	if err != nil {
		return domain.AgendaThread{}, err
	}
	if len(events) == 0 {
		return domain.AgendaThread{}, ErrThreadNotFound
	}

	var newest domain.AgendaThread
	for _, ev := range reduceReplaceable(events) {
		thread := agenda.DecodeThread(ev)
		if newest.Id == "" || thread.StartDate.After(newest.StartDate) {
			newest = thread
		}
	}

	t.cache.Set(cacheKeyCurrentThread, newest)
	return newest, nil
}

// EnsureCurrent returns the current thread, creating this week's
// thread first when none exists and the admin config allows automatic
// creation.
func (t *Thread) EnsureCurrent(ctx context.Context, signer Signer) (domain.AgendaThread, error) {
	thread, err := t.Current(ctx)
	if err != ErrThreadNotFound {
		return thread, err
	}

	cfg, cfgErr := t.config.Config(ctx)
	if cfgErr != nil || !cfg.ThreadAutoCreation || signer == nil {
		return domain.AgendaThread{}, ErrThreadNotFound
	}

	if _, err := t.Create(ctx, signer, domain.ThreadCreationData{Title: "Weekly Agenda"}); err != nil {
		logger.Log.Warn("thread auto-creation failed", "error", err)
		return domain.AgendaThread{}, ErrThreadNotFound
	}
	return t.Current(ctx)
}

// Create publishes this week's thread event. The identifier derives
// from the week start, so a second create in the same week replaces
// the first instead of adding a sibling.
func (t *Thread) Create(ctx context.Context, signer Signer, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if err := t.validator.Title(data.Title); err != nil {
		return "", err
	}

	now := t.now()
	ev := agenda.EncodeThread(data.Title, data.Description, now)
	if cfg, err := t.config.Config(ctx); err == nil && !cfg.ShowSubmissionsByDefault {
		for i, tag := range ev.Tags {
			if len(tag) > 0 && tag[0] == agenda.TagShow {
				ev.Tags[i] = nostr.Tag{agenda.TagShow, "false"}
			}
		}
	}
	if err := signer.Sign(ev); err != nil {
		return "", err
	}
	if err := t.relay.Publish(ctx, ev); err != nil {
		return "", err
	}

	t.cache.Invalidate(cacheKeyCurrentThread)
	return agenda.ThreadID(now), nil
}

// Update re-publishes the replaceable thread event with the given
// fields changed and every unrelated tag preserved.
func (t *Thread) Update(ctx context.Context, signer Signer, threadId domain.ThreadId, upd domain.ThreadUpdate) error {
	if upd.Title != nil {
		if err := t.validator.Title(*upd.Title); err != nil {
			return err
		}
	}

	events, err := t.relay.Query(ctx, []nostr.Filter{agenda.ThreadByIDFilter(threadId)})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return ErrThreadNotFound
	}
	original := newestEvent(events)

	tags := nostr.Tags{}
	for _, tag := range original.Tags {
		if len(tag) > 0 && (tag[0] == agenda.TagTitle || tag[0] == agenda.TagShow) {
			continue
		}
		tags = append(tags, tag)
	}
	title := ""
	if v, ok := agenda.NewThreadTags(original.Tags).Title(); ok {
		title = v
	}
	if upd.Title != nil {
		title = *upd.Title
	}
	tags = append(tags, nostr.Tag{agenda.TagTitle, title})

	show := agenda.NewThreadTags(original.Tags).Show()
	if upd.ShowSubmissions != nil {
		show = *upd.ShowSubmissions
	}
	showStr := "false"
	if show {
		showStr = "true"
	}
	tags = append(tags, nostr.Tag{agenda.TagShow, showStr})

	content := original.Content
	if upd.Description != nil {
		content = *upd.Description
	}

	ev := &nostr.Event{
		Kind:      agenda.KindAgendaThread,
		CreatedAt: nostr.Timestamp(t.now().Unix()),
		Content:   content,
		Tags:      tags,
	}
	if err := signer.Sign(ev); err != nil {
		return err
	}
	if err := t.relay.Publish(ctx, ev); err != nil {
		return err
	}

	t.cache.Invalidate(cacheKeyCurrentThread)
	return nil
}

// reduceReplaceable keeps only the newest event per "d" identifier.
// Events without a "d" tag pass through keyed by their own id.
func reduceReplaceable(events []*nostr.Event) []*nostr.Event {
	latest := make(map[string]*nostr.Event)
	for _, ev := range events {
		key := ev.ID
		if d, ok := agenda.NewThreadTags(ev.Tags).Identifier(); ok {
			key = d
		}
		if cur, ok := latest[key]; !ok || ev.CreatedAt > cur.CreatedAt {
			latest[key] = ev
		}
	}
	reduced := make([]*nostr.Event, 0, len(latest))
	for _, ev := range latest {
		reduced = append(reduced, ev)
	}
	return reduced
}

func newestEvent(events []*nostr.Event) *nostr.Event {
	newest := events[0]
	for _, ev := range events[1:] {
		if ev.CreatedAt > newest.CreatedAt {
			newest = ev
		}
	}
	return newest
}
