package agenda

import (
	"github.com/nbd-wtf/go-nostr"
)

// Named accessors over the raw [][]string tag list so decode logic
// never does positional lookups. Every accessor degrades to a default
// on a missing tag instead of failing.

func firstTagValue(tags nostr.Tags, name string) (string, bool) {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}

// ThreadTags reads the tag conventions of a kind-30001 agenda thread.
type ThreadTags struct{ tags nostr.Tags }

func NewThreadTags(tags nostr.Tags) ThreadTags { return ThreadTags{tags} }

func (t ThreadTags) Identifier() (string, bool) { return firstTagValue(t.tags, TagIdentifier) }
func (t ThreadTags) Title() (string, bool)      { return firstTagValue(t.tags, TagTitle) }
func (t ThreadTags) Start() (string, bool)      { return firstTagValue(t.tags, TagStart) }
func (t ThreadTags) End() (string, bool)        { return firstTagValue(t.tags, TagEnd) }

// Show defaults to true when the tag is absent.
func (t ThreadTags) Show() bool {
	v, ok := firstTagValue(t.tags, TagShow)
	if !ok {
		return true
	}
	return v == "true"
}

// ItemTags reads the tag conventions of a kind-1 agenda item.
type ItemTags struct{ tags nostr.Tags }

func NewItemTags(tags nostr.Tags) ItemTags { return ItemTags{tags} }

func (t ItemTags) ThreadRef() (string, bool) { return firstTagValue(t.tags, TagThreadRef) }

// SourceRef is the logical item identity carried by admin-updated
// copies. Absent on the originally submitted event.
func (t ItemTags) SourceRef() (string, bool) { return firstTagValue(t.tags, TagEventRef) }

func (t ItemTags) Anonymous() bool {
	v, _ := firstTagValue(t.tags, TagAnonymous)
	return v == "true"
}

func (t ItemTags) Starred() bool {
	v, _ := firstTagValue(t.tags, TagStarred)
	return v == "true"
}

func (t ItemTags) Priority() (string, bool) { return firstTagValue(t.tags, TagPriority) }

// ConfigTags reads the tag conventions of a kind-30002 config event.
type ConfigTags struct{ tags nostr.Tags }

func NewConfigTags(tags nostr.Tags) ConfigTags { return ConfigTags{tags} }

// Admins returns every value following the first "admins" tag name.
// Zero admins is a valid (closed) configuration.
func (t ConfigTags) Admins() []string {
	for _, tag := range t.tags {
		if len(tag) >= 1 && tag[0] == TagAdmins {
			return append([]string{}, tag[1:]...)
		}
	}
	return []string{}
}

// Relays returns the values of all "relay" tags in event order. The
// first entry is the default relay, the rest are additional.
func (t ConfigTags) Relays() []string {
	var relays []string
	for _, tag := range t.tags {
		if len(tag) >= 2 && tag[0] == TagRelay {
			relays = append(relays, tag[1])
		}
	}
	return relays
}
