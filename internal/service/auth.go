package service

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/kep-app/kep/internal/domain"
	internal_errors "github.com/kep-app/kep/internal/errors"
	"github.com/kep-app/kep/internal/jwt"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/store"
)

type AuthService interface {
	Login(credential string) (string, domain.Session, error)
	Logout(sessionId string) error
	Generate() (domain.Keypair, error)
	SessionExists(sessionId string) bool
	SignerFor(sessionId string) (Signer, error)
	Preferences(pubkey domain.Pubkey) (domain.Preferences, error)
	SavePreferences(pubkey domain.Pubkey, prefs domain.Preferences) error
}

// SessionStore is the persistence boundary for sessions and
// preferences, implemented by the sqlite store.
type SessionStore interface {
	CreateSession(sess domain.Session, secretKey string) error
	GetSession(id string) (domain.Session, string, error)
	DeleteSession(id string) error
	SetPreference(pubkey, name, value string) error
	GetPreference(pubkey, name string) (string, error)
	Preferences(pubkey string) (map[string]string, error)
}

var errBadCredential = &internal_errors.ErrorWithStatusCode{
	Message:    "Credential must be an nsec, an npub or a hex private key",
	StatusCode: http.StatusBadRequest,
}

type Auth struct {
	store SessionStore
	jwt   jwt.JwtService
}

func NewAuth(st SessionStore, jwtService jwt.JwtService) *Auth {
	return &Auth{store: st, jwt: jwtService}
}

// Login opens a session from a pasted credential. An nsec or a bare
// hex private key opens a signing session; an npub opens a read-only
// one. The secret key never leaves the store sealed form after this
// call returns.
func (a *Auth) Login(credential string) (string, domain.Session, error) {
	credential = strings.TrimSpace(credential)

	var (
		secretKey string
		pubkey    domain.Pubkey
		readOnly  bool
	)

	switch {
	case strings.HasPrefix(credential, "nsec"):
		prefix, value, err := nip19.Decode(credential)
		if err != nil || prefix != "nsec" {
			return "", domain.Session{}, errBadCredential
		}
		secretKey = value.(string)
	case strings.HasPrefix(credential, "npub"):
		prefix, value, err := nip19.Decode(credential)
		if err != nil || prefix != "npub" {
			return "", domain.Session{}, errBadCredential
		}
		pubkey = value.(string)
		readOnly = true
	default:
		if len(credential) != 64 {
			return "", domain.Session{}, errBadCredential
		}
		secretKey = credential
	}

	if !readOnly {
		pk, err := nostr.GetPublicKey(secretKey)
		if err != nil {
			return "", domain.Session{}, errBadCredential
		}
		pubkey = pk
	}

	sess := domain.Session{
		Id:        uuid.NewString(),
		Pubkey:    pubkey,
		ReadOnly:  readOnly,
		CreatedAt: time.Now(),
	}
	if err := a.store.CreateSession(sess, secretKey); err != nil {
		logger.Log.Error("creating session", "error", err)
		return "", domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Can't create session", StatusCode: http.StatusInternalServerError}
	}

	token, err := a.jwt.NewToken(sess)
	if err != nil {
		return "", domain.Session{}, err
	}
	return token, sess, nil
}

func (a *Auth) Logout(sessionId string) error {
	return a.store.DeleteSession(sessionId)
}

// Generate creates a fresh keypair for onboarding. Nothing is stored;
// the caller logs in with the returned nsec.
func (a *Auth) Generate() (domain.Keypair, error) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		return domain.Keypair{}, err
	}

	nsec, err := nip19.EncodePrivateKey(sk)
	if err != nil {
		return domain.Keypair{}, err
	}
	npub, err := nip19.EncodePublicKey(pk)
	if err != nil {
		return domain.Keypair{}, err
	}
	return domain.Keypair{Nsec: nsec, Npub: npub, Pubkey: pk}, nil
}

// SessionExists is the revocation check used by the auth middleware.
func (a *Auth) SessionExists(sessionId string) bool {
	_, _, err := a.store.GetSession(sessionId)
	return err == nil
}

// SignerFor returns a signer bound to the session's key, or ErrReadOnly
// for sessions opened with a public key only.
func (a *Auth) SignerFor(sessionId string) (Signer, error) {
	sess, secretKey, err := a.store.GetSession(sessionId)
	if err == store.ErrNotFound {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Session expired", StatusCode: http.StatusUnauthorized}
	}
	if err != nil {
		return nil, err
	}
	if sess.ReadOnly || secretKey == "" {
		return nil, ErrReadOnly
	}
	return &sessionSigner{pubkey: sess.Pubkey, secretKey: secretKey}, nil
}

type sessionSigner struct {
	pubkey    domain.Pubkey
	secretKey string
}

func (s *sessionSigner) Pubkey() domain.Pubkey { return s.pubkey }

func (s *sessionSigner) Sign(ev *nostr.Event) error {
	return ev.Sign(s.secretKey)
}

// Preference names mirror the browser settings of the original client.
const (
	prefTheme         = "theme"
	prefLanguage      = "language"
	prefUseAI         = "use_ai"
	prefAccessibility = "accessibility"
)

func (a *Auth) Preferences(pubkey domain.Pubkey) (domain.Preferences, error) {
	stored, err := a.store.Preferences(pubkey)
	if err != nil {
		return domain.Preferences{}, err
	}

	prefs := domain.Preferences{
		Theme:    stored[prefTheme],
		Language: stored[prefLanguage],
		UseAI:    stored[prefUseAI] == "true",
	}
	if raw := stored[prefAccessibility]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &prefs.Accessibility); err != nil {
			logger.Log.Warn("malformed accessibility preference", "pubkey", pubkey)
		}
	}
	return prefs, nil
}

func (a *Auth) SavePreferences(pubkey domain.Pubkey, prefs domain.Preferences) error {
	accessibility, err := json.Marshal(prefs.Accessibility)
	if err != nil {
		return err
	}

	useAI := "false"
	if prefs.UseAI {
		useAI = "true"
	}
	for name, value := range map[string]string{
		prefTheme:         prefs.Theme,
		prefLanguage:      prefs.Language,
		prefUseAI:         useAI,
		prefAccessibility: string(accessibility),
	} {
		if err := a.store.SetPreference(pubkey, name, value); err != nil {
			return err
		}
	}
	return nil
}
