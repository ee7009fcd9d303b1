package service

import (
	"context"
	"errors"
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

func newAdminService(relay *mockRelay) *Admin {
	return NewAdmin(relay, cache.New(time.Minute), &utils.RelayURLValidator{})
}

func signedConfig(sk string, createdAt nostr.Timestamp, cfg domain.AdminConfig) *nostr.Event {
	ev := agenda.EncodeAdminConfig(cfg)
	ev.CreatedAt = createdAt
	ev.Sign(sk)
	return ev
}

func TestAdminConfigNewestWins(t *testing.T) {
	sk := nostr.GeneratePrivateKey()

	oldCfg := domain.DefaultAdminConfig()
	oldCfg.Admins = []domain.Pubkey{"aaa"}
	oldCfg.DefaultRelay = "wss://old.example"

	newCfg := domain.DefaultAdminConfig()
	newCfg.Admins = []domain.Pubkey{"bbb"}
	newCfg.DefaultRelay = "wss://new.example"

	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{
			signedConfig(sk, 100, oldCfg),
			signedConfig(sk, 200, newCfg),
		}, nil
	}}
	svc := newAdminService(relay)

	cfg, err := svc.Config(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.Pubkey{"bbb"}, cfg.Admins)
	assert.Equal(t, "wss://new.example", cfg.DefaultRelay)
}

func TestAdminConfigDefaultWhenEmpty(t *testing.T) {
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return nil, nil
	}}
	svc := newAdminService(relay)

	cfg, err := svc.Config(context.Background())

	require.NoError(t, err)
	assert.Empty(t, cfg.Admins)
	assert.True(t, cfg.ThreadAutoCreation)
	assert.True(t, cfg.ShowSubmissionsByDefault)
}

func TestAdminConfigRelayFailureIsNotDefault(t *testing.T) {
	relayErr := errors.New("all relays failed")
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return nil, relayErr
	}}
	svc := newAdminService(relay)

	_, err := svc.Config(context.Background())

	assert.ErrorIs(t, err, relayErr)
}

func TestAdminSavePublishesAndReconfiguresRelays(t *testing.T) {
	relay := &mockRelay{}
	svc := newAdminService(relay)

	cfg := domain.DefaultAdminConfig()
	cfg.Admins = []domain.Pubkey{"aaa", "bbb"}
	cfg.DefaultRelay = "wss://primary.example"
	cfg.AdditionalRelays = []domain.RelayURL{"wss://backup.example"}

	err := svc.Save(context.Background(), newTestSigner(), cfg)

	require.NoError(t, err)
	require.Len(t, relay.published, 1)
	decoded := agenda.DecodeAdminConfig(relay.published[0])
	assert.Equal(t, cfg.Admins, decoded.Admins)
	assert.Equal(t, cfg.DefaultRelay, decoded.DefaultRelay)

	require.Len(t, relay.relaySets, 1)
	assert.Equal(t, []string{"wss://primary.example", "wss://backup.example"}, relay.relaySets[0])
}

func TestAdminSaveValidatesRelays(t *testing.T) {
	relay := &mockRelay{}
	svc := newAdminService(relay)

	tests := []struct {
		name string
		cfg  func() domain.AdminConfig
	}{
		{"missing default relay", func() domain.AdminConfig {
			return domain.DefaultAdminConfig()
		}},
		{"http scheme", func() domain.AdminConfig {
			cfg := domain.DefaultAdminConfig()
			cfg.DefaultRelay = "https://not-a-relay.example"
			return cfg
		}},
		{"bad additional relay", func() domain.AdminConfig {
			cfg := domain.DefaultAdminConfig()
			cfg.DefaultRelay = "wss://ok.example"
			cfg.AdditionalRelays = []domain.RelayURL{"ftp://nope.example"}
			return cfg
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Save(context.Background(), newTestSigner(), tc.cfg())
			assert.Error(t, err)
		})
	}
	assert.Empty(t, relay.published)
}

func TestAdminSaveInvalidatesConfigCache(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	served := domain.DefaultAdminConfig()
	served.DefaultRelay = "wss://served.example"

	queries := 0
	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		queries++
		return []*nostr.Event{signedConfig(sk, 100, served)}, nil
	}}
	svc := newAdminService(relay)

	_, err := svc.Config(context.Background())
	require.NoError(t, err)

	saved := domain.DefaultAdminConfig()
	saved.DefaultRelay = "wss://saved.example"
	require.NoError(t, svc.Save(context.Background(), newTestSigner(), saved))

	_, err = svc.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queries)
}

func TestAdminIsAdmin(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	cfg := domain.DefaultAdminConfig()
	cfg.Admins = []domain.Pubkey{"admin-key"}
	cfg.DefaultRelay = "wss://r.example"

	relay := &mockRelay{queryFunc: func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
		return []*nostr.Event{signedConfig(sk, 100, cfg)}, nil
	}}
	svc := newAdminService(relay)

	ok, err := svc.IsAdmin(context.Background(), "admin-key")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(context.Background(), "someone-else")
	require.NoError(t, err)
	assert.False(t, ok)
}
