package service

import (
	"context"
	"net/http"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/domain"
	internal_errors "github.com/kep-app/kep/internal/errors"
)

// RelayClient is the protocol query/publish boundary. The services
// only ever feed it filters and signed event templates.
type RelayClient interface {
	Query(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error)
	Publish(ctx context.Context, ev *nostr.Event) error
	SetRelays(urls []string)
}

// Signer turns an event template into a signed event. The services
// never see private key material directly.
type Signer interface {
	Pubkey() domain.Pubkey
	Sign(ev *nostr.Event) error
}

// Cache keys. Entries are invalidated after related publishes.
const (
	cacheKeyCurrentThread = "agenda-thread/current"
	cacheKeyConfig        = "admin-config"
	cacheKeyItemsPrefix   = "agenda-items/"
)

func cacheKeyItems(threadId domain.ThreadId) string {
	return cacheKeyItemsPrefix + threadId
}

var (
	ErrThreadNotFound = &internal_errors.ErrorWithStatusCode{Message: "Agenda thread not found", StatusCode: http.StatusNotFound}
	ErrItemNotFound   = &internal_errors.ErrorWithStatusCode{Message: "Agenda item not found", StatusCode: http.StatusNotFound}
	ErrReadOnly       = &internal_errors.ErrorWithStatusCode{Message: "Read-only session can't publish", StatusCode: http.StatusForbidden}
)
