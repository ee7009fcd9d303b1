package service

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/domain"
)

type mockRelay struct {
	queryFunc   func(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error)
	publishFunc func(ctx context.Context, ev *nostr.Event) error

	published []*nostr.Event
	relaySets [][]string
}

func (m *mockRelay) Query(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, filters)
	}
	return nil, nil
}

func (m *mockRelay) Publish(ctx context.Context, ev *nostr.Event) error {
	m.published = append(m.published, ev)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, ev)
	}
	return nil
}

func (m *mockRelay) SetRelays(urls []string) {
	m.relaySets = append(m.relaySets, urls)
}

// testSigner signs with a throwaway key so published events carry real
// ids and signatures.
type testSigner struct {
	sk string
	pk string
}

func newTestSigner() *testSigner {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)
	return &testSigner{sk: sk, pk: pk}
}

func (s *testSigner) Pubkey() domain.Pubkey      { return s.pk }
func (s *testSigner) Sign(ev *nostr.Event) error { return ev.Sign(s.sk) }

type mockSessionStore struct {
	createSessionFunc func(sess domain.Session, secretKey string) error
	getSessionFunc    func(id string) (domain.Session, string, error)
	deleteSessionFunc func(id string) error

	prefs map[string]map[string]string
}

func (m *mockSessionStore) CreateSession(sess domain.Session, secretKey string) error {
	if m.createSessionFunc != nil {
		return m.createSessionFunc(sess, secretKey)
	}
	return nil
}

func (m *mockSessionStore) GetSession(id string) (domain.Session, string, error) {
	return m.getSessionFunc(id)
}

func (m *mockSessionStore) DeleteSession(id string) error {
	if m.deleteSessionFunc != nil {
		return m.deleteSessionFunc(id)
	}
	return nil
}

func (m *mockSessionStore) SetPreference(pubkey, name, value string) error {
	if m.prefs == nil {
		m.prefs = make(map[string]map[string]string)
	}
	if m.prefs[pubkey] == nil {
		m.prefs[pubkey] = make(map[string]string)
	}
	m.prefs[pubkey][name] = value
	return nil
}

func (m *mockSessionStore) GetPreference(pubkey, name string) (string, error) {
	return m.prefs[pubkey][name], nil
}

func (m *mockSessionStore) Preferences(pubkey string) (map[string]string, error) {
	if m.prefs[pubkey] == nil {
		return map[string]string{}, nil
	}
	return m.prefs[pubkey], nil
}

// signedThread builds a signed thread event with an arbitrary id tag.
func signedThread(sk, id, title string, createdAt nostr.Timestamp) *nostr.Event {
	ev := &nostr.Event{
		Kind:      30001,
		CreatedAt: createdAt,
		Content:   "",
		Tags: nostr.Tags{
			{"d", id},
			{"title", title},
			{"start", "2026-08-24T00:00:00Z"},
			{"end", "2026-08-30T00:00:00Z"},
			{"t", "kep-agenda-thread"},
			{"show", "true"},
		},
	}
	ev.Sign(sk)
	return ev
}

func signedItem(sk, threadId, content string, createdAt nostr.Timestamp, extra ...nostr.Tag) *nostr.Event {
	tags := nostr.Tags{
		{"thread", threadId},
		{"t", "kep-agenda-item"},
		{"anonymous", "false"},
	}
	tags = append(tags, extra...)
	ev := &nostr.Event{
		Kind:      1,
		CreatedAt: createdAt,
		Content:   content,
		Tags:      tags,
	}
	ev.Sign(sk)
	return ev
}
