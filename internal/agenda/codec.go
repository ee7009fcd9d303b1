package agenda

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/domain"
)

// configContent is the JSON payload of a config event.
type configContent struct {
	ThreadAutoCreation       *bool `json:"threadAutoCreation"`
	ShowSubmissionsByDefault *bool `json:"showSubmissionsByDefault"`
}

// EncodeThread builds the replaceable event template for the week
// containing now. The "d" tag is derived from the week start, so
// publishing twice in one week replaces rather than appends.
func EncodeThread(title, description string, now time.Time) *nostr.Event {
	start := WeekStart(now)
	end := WeekEnd(now)

	return &nostr.Event{
		Kind:      KindAgendaThread,
		CreatedAt: nostr.Timestamp(now.Unix()),
		Content:   description,
		Tags: nostr.Tags{
			{TagIdentifier, ThreadID(now)},
			{TagTitle, title},
			{TagStart, start.Format(time.RFC3339)},
			{TagEnd, end.Format(time.RFC3339)},
			{TagCategory, CategoryThread},
			{TagShow, "true"},
		},
	}
}

// EncodeItem builds the event template for a new agenda item.
func EncodeItem(threadId domain.ThreadId, content string, isAnonymous bool) *nostr.Event {
	anonymous := "false"
	if isAnonymous {
		anonymous = "true"
	}

	return &nostr.Event{
		Kind:      KindTextNote,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags: nostr.Tags{
			{TagThreadRef, threadId},
			{TagCategory, CategoryItem},
			{TagAnonymous, anonymous},
		},
	}
}

// EncodeAdminConfig builds the replaceable config event. All admins
// share a single multi-value "admins" tag; relays get one "relay" tag
// each with the default relay first.
func EncodeAdminConfig(cfg domain.AdminConfig) *nostr.Event {
	content, _ := json.Marshal(map[string]bool{
		"threadAutoCreation":       cfg.ThreadAutoCreation,
		"showSubmissionsByDefault": cfg.ShowSubmissionsByDefault,
	})

	tags := nostr.Tags{
		{TagIdentifier, ConfigIdentifier},
		append(nostr.Tag{TagAdmins}, cfg.Admins...),
		{TagRelay, cfg.DefaultRelay},
	}
	for _, relay := range cfg.AdditionalRelays {
		tags = append(tags, nostr.Tag{TagRelay, relay})
	}

	return &nostr.Event{
		Kind:      KindApplicationConfig,
		CreatedAt: nostr.Now(),
		Content:   string(content),
		Tags:      tags,
	}
}

// DecodeThread recovers an AgendaThread. Every missing tag degrades to
// a documented default; decoding never fails.
func DecodeThread(ev *nostr.Event) domain.AgendaThread {
	tags := NewThreadTags(ev.Tags)

	id, ok := tags.Identifier()
	if !ok {
		id = ev.ID
	}
	title, ok := tags.Title()
	if !ok {
		title = DefaultThreadTitle
	}

	now := time.Now().UTC()
	start := now
	if v, ok := tags.Start(); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			start = parsed
		}
	}
	end := now
	if v, ok := tags.End(); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			end = parsed
		}
	}

	return domain.AgendaThread{
		Id:              id,
		Title:           title,
		Description:     ev.Content,
		StartDate:       start,
		EndDate:         end,
		ShowSubmissions: tags.Show(),
		Items:           []domain.AgendaItem{},
	}
}

// DecodeItem recovers an AgendaItem. The logical identity is the "e"
// source ref when present (admin-updated copy), else the event id.
// SubmittedBy is only populated for non-anonymous items.
func DecodeItem(ev *nostr.Event) domain.AgendaItem {
	tags := NewItemTags(ev.Tags)

	id, ok := tags.SourceRef()
	if !ok {
		id = ev.ID
	}

	isAnonymous := tags.Anonymous()
	var submittedBy *domain.User
	if !isAnonymous {
		submittedBy = &domain.User{Pubkey: ev.PubKey}
	}

	var priority *int
	if v, ok := tags.Priority(); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			priority = &parsed
		}
	}

	return domain.AgendaItem{
		Id:          id,
		Content:     ev.Content,
		SubmittedBy: submittedBy,
		CreatedAt:   int64(ev.CreatedAt),
		IsAnonymous: isAnonymous,
		Priority:    priority,
		Starred:     tags.Starred(),
	}
}

// DecodeAdminConfig recovers an AdminConfig. A missing or malformed
// JSON content falls back to both behavior booleans being true; a
// parse failure must never abort rendering.
func DecodeAdminConfig(ev *nostr.Event) domain.AdminConfig {
	tags := NewConfigTags(ev.Tags)

	cfg := domain.DefaultAdminConfig()
	cfg.Admins = tags.Admins()

	relays := tags.Relays()
	if len(relays) > 0 {
		cfg.DefaultRelay = relays[0]
		cfg.AdditionalRelays = relays[1:]
	}

	var content configContent
	if err := json.Unmarshal([]byte(ev.Content), &content); err == nil {
		if content.ThreadAutoCreation != nil {
			cfg.ThreadAutoCreation = *content.ThreadAutoCreation
		}
		if content.ShowSubmissionsByDefault != nil {
			cfg.ShowSubmissionsByDefault = *content.ShowSubmissionsByDefault
		}
	}

	return cfg
}
