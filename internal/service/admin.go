package service

import (
	"context"
	"net/http"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/agenda"
	"github.com/kep-app/kep/internal/cache"
	"github.com/kep-app/kep/internal/domain"
	internal_errors "github.com/kep-app/kep/internal/errors"
)

type AdminService interface {
	Config(ctx context.Context) (domain.AdminConfig, error)
	Save(ctx context.Context, signer Signer, cfg domain.AdminConfig) error
	IsAdmin(ctx context.Context, pubkey domain.Pubkey) (bool, error)
}

type RelayValidator interface {
	URL(url string) error
}

type Admin struct {
	relay     RelayClient
	cache     *cache.Cache
	validator RelayValidator
}

func NewAdmin(relay RelayClient, c *cache.Cache, validator RelayValidator) *Admin {
	return &Admin{relay: relay, cache: c, validator: validator}
}

// Config resolves the authoritative admin config. When several config
// events survive the query, the newest created_at wins; with none, the
// closed default applies. A relay failure is NOT mapped to the default
// so that moderation can't be opened up by cutting connectivity.
func (a *Admin) Config(ctx context.Context) (domain.AdminConfig, error) {
	if v, ok := a.cache.Get(cacheKeyConfig); ok {
		return v.(domain.AdminConfig), nil
	}

	events, err := a.relay.Query(ctx, []nostr.Filter{agenda.ConfigFilter()})
	if err != nil {
		return domain.AdminConfig{}, err
	}

	cfg := domain.DefaultAdminConfig()
	if len(events) > 0 {
		cfg = agenda.DecodeAdminConfig(newestEvent(events))
	}

	a.cache.Set(cacheKeyConfig, cfg)
	return cfg, nil
}

// Save publishes a new config event and points the relay client at the
// saved relay set. Caller must already be authorized.
func (a *Admin) Save(ctx context.Context, signer Signer, cfg domain.AdminConfig) error {
	if cfg.DefaultRelay == "" {
		return &internal_errors.ErrorWithStatusCode{Message: "Default relay is required", StatusCode: http.StatusBadRequest}
	}
	for _, relay := range cfg.Relays() {
		if err := a.validator.URL(relay); err != nil {
			return err
		}
	}

	ev := agenda.EncodeAdminConfig(cfg)
	if err := signer.Sign(ev); err != nil {
		return err
	}
	if err := a.relay.Publish(ctx, ev); err != nil {
		return err
	}

	a.cache.Invalidate(cacheKeyConfig)
	a.relay.SetRelays(cfg.Relays())
	return nil
}

func (a *Admin) IsAdmin(ctx context.Context, pubkey domain.Pubkey) (bool, error) {
	cfg, err := a.Config(ctx)
	if err != nil {
		return false, err
	}
	return agenda.IsAdmin(pubkey, cfg), nil
}
