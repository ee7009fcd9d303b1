package agenda

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/domain"
)

// Pure filter constructors. Deterministic, no side effects; the relay
// client is the only consumer.

// ThreadFilter matches all agenda thread events.
func ThreadFilter() nostr.Filter {
	return nostr.Filter{
		Kinds: []int{KindAgendaThread},
		Tags:  nostr.TagMap{TagCategory: []string{CategoryThread}},
	}
}

// ThreadByIDFilter matches the replaceable thread event with the given
// derived identifier.
func ThreadByIDFilter(threadId domain.ThreadId) nostr.Filter {
	return nostr.Filter{
		Kinds: []int{KindAgendaThread},
		Tags:  nostr.TagMap{TagIdentifier: []string{threadId}},
	}
}

// ItemsFilter matches all agenda items belonging to a thread.
func ItemsFilter(threadId domain.ThreadId) nostr.Filter {
	return nostr.Filter{
		Kinds: []int{KindTextNote},
		Tags: nostr.TagMap{
			TagThreadRef: []string{threadId},
			TagCategory:  []string{CategoryItem},
		},
	}
}

// ItemByIDFilter matches one item event by its event id.
func ItemByIDFilter(itemId domain.ItemId) nostr.Filter {
	return nostr.Filter{
		Kinds: []int{KindTextNote},
		IDs:   []string{itemId},
	}
}

// ConfigFilter matches the kep admin config events.
func ConfigFilter() nostr.Filter {
	return nostr.Filter{
		Kinds: []int{KindApplicationConfig},
		Tags:  nostr.TagMap{TagIdentifier: []string{ConfigIdentifier}},
	}
}
