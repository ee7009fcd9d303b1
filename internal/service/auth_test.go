package service

import (
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/jwt"
	"github.com/kep-app/kep/internal/store"
)

func newAuthService(st SessionStore) *Auth {
	return NewAuth(st, jwt.New("test-secret", time.Hour))
}

func TestLoginWithNsec(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)
	nsec, err := nip19.EncodePrivateKey(sk)
	require.NoError(t, err)

	var storedKey string
	st := &mockSessionStore{createSessionFunc: func(sess domain.Session, secretKey string) error {
		storedKey = secretKey
		return nil
	}}
	svc := newAuthService(st)

	token, sess, err := svc.Login(nsec)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, pk, sess.Pubkey)
	assert.False(t, sess.ReadOnly)
	assert.Equal(t, sk, storedKey)
}

func TestLoginWithHexKey(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)

	svc := newAuthService(&mockSessionStore{})

	_, sess, err := svc.Login(sk)

	require.NoError(t, err)
	assert.Equal(t, pk, sess.Pubkey)
	assert.False(t, sess.ReadOnly)
}

func TestLoginWithNpubIsReadOnly(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)
	npub, err := nip19.EncodePublicKey(pk)
	require.NoError(t, err)

	var storedKey string
	st := &mockSessionStore{createSessionFunc: func(sess domain.Session, secretKey string) error {
		storedKey = secretKey
		return nil
	}}
	svc := newAuthService(st)

	_, sess, err := svc.Login(npub)

	require.NoError(t, err)
	assert.Equal(t, pk, sess.Pubkey)
	assert.True(t, sess.ReadOnly)
	assert.Empty(t, storedKey)
}

func TestLoginRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockSessionStore{})

	tests := []string{"", "not-a-key", "nsec1tooshort", "npub1nope"}
	for _, credential := range tests {
		_, _, err := svc.Login(credential)
		assert.Error(t, err, credential)
	}
}

func TestGenerate(t *testing.T) {
	svc := newAuthService(&mockSessionStore{})

	kp, err := svc.Generate()

	require.NoError(t, err)
	assert.True(t, len(kp.Nsec) > 4 && kp.Nsec[:4] == "nsec")
	assert.True(t, len(kp.Npub) > 4 && kp.Npub[:4] == "npub")

	// generated nsec logs straight back in as the same identity
	_, sess, err := svc.Login(kp.Nsec)
	require.NoError(t, err)
	assert.Equal(t, kp.Pubkey, sess.Pubkey)
}

func TestSignerForSigningSession(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, _ := nostr.GetPublicKey(sk)

	st := &mockSessionStore{getSessionFunc: func(id string) (domain.Session, string, error) {
		return domain.Session{Id: id, Pubkey: pk}, sk, nil
	}}
	svc := newAuthService(st)

	signer, err := svc.SignerFor("sid-1")

	require.NoError(t, err)
	assert.Equal(t, pk, signer.Pubkey())

	ev := &nostr.Event{Kind: 1, CreatedAt: nostr.Now(), Content: "hello"}
	require.NoError(t, signer.Sign(ev))
	ok, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, pk, ev.PubKey)
}

func TestSignerForReadOnlySession(t *testing.T) {
	st := &mockSessionStore{getSessionFunc: func(id string) (domain.Session, string, error) {
		return domain.Session{Id: id, Pubkey: "pk", ReadOnly: true}, "", nil
	}}
	svc := newAuthService(st)

	_, err := svc.SignerFor("sid-1")

	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestSignerForExpiredSession(t *testing.T) {
	st := &mockSessionStore{getSessionFunc: func(id string) (domain.Session, string, error) {
		return domain.Session{}, "", store.ErrNotFound
	}}
	svc := newAuthService(st)

	_, err := svc.SignerFor("gone")

	assert.Error(t, err)
}

func TestSessionExists(t *testing.T) {
	st := &mockSessionStore{getSessionFunc: func(id string) (domain.Session, string, error) {
		if id == "live" {
			return domain.Session{Id: id}, "", nil
		}
		return domain.Session{}, "", store.ErrNotFound
	}}
	svc := newAuthService(st)

	assert.True(t, svc.SessionExists("live"))
	assert.False(t, svc.SessionExists("revoked"))
}

func TestPreferencesRoundTrip(t *testing.T) {
	st := &mockSessionStore{}
	svc := newAuthService(st)

	want := domain.Preferences{
		Theme:         "dark",
		Accessibility: []string{"high-contrast", "large-text"},
		Language:      "en",
		UseAI:         true,
	}
	require.NoError(t, svc.SavePreferences("pk", want))

	got, err := svc.Preferences("pk")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPreferencesUnset(t *testing.T) {
	svc := newAuthService(&mockSessionStore{})

	got, err := svc.Preferences("unknown")

	require.NoError(t, err)
	assert.Equal(t, domain.Preferences{}, got)
}
