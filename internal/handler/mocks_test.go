package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/config"
	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/markdown"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/service"
)

type mockAuthService struct {
	loginFunc           func(credential string) (string, domain.Session, error)
	logoutFunc          func(sessionId string) error
	generateFunc        func() (domain.Keypair, error)
	sessionExistsFunc   func(sessionId string) bool
	signerForFunc       func(sessionId string) (service.Signer, error)
	preferencesFunc     func(pubkey domain.Pubkey) (domain.Preferences, error)
	savePreferencesFunc func(pubkey domain.Pubkey, prefs domain.Preferences) error
}

func (m *mockAuthService) Login(credential string) (string, domain.Session, error) {
	return m.loginFunc(credential)
}

func (m *mockAuthService) Logout(sessionId string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(sessionId)
	}
	return nil
}

func (m *mockAuthService) Generate() (domain.Keypair, error) {
	return m.generateFunc()
}

func (m *mockAuthService) SessionExists(sessionId string) bool {
	if m.sessionExistsFunc != nil {
		return m.sessionExistsFunc(sessionId)
	}
	return true
}

func (m *mockAuthService) SignerFor(sessionId string) (service.Signer, error) {
	if m.signerForFunc != nil {
		return m.signerForFunc(sessionId)
	}
	return stubSigner{}, nil
}

func (m *mockAuthService) Preferences(pubkey domain.Pubkey) (domain.Preferences, error) {
	if m.preferencesFunc != nil {
		return m.preferencesFunc(pubkey)
	}
	return domain.Preferences{}, nil
}

func (m *mockAuthService) SavePreferences(pubkey domain.Pubkey, prefs domain.Preferences) error {
	if m.savePreferencesFunc != nil {
		return m.savePreferencesFunc(pubkey, prefs)
	}
	return nil
}

type stubSigner struct{}

func (stubSigner) Pubkey() domain.Pubkey      { return "stub-pubkey" }
func (stubSigner) Sign(ev *nostr.Event) error { return nil }

type mockThreadService struct {
	currentFunc       func(ctx context.Context) (domain.AgendaThread, error)
	ensureCurrentFunc func(ctx context.Context, signer service.Signer) (domain.AgendaThread, error)
	createFunc        func(ctx context.Context, signer service.Signer, data domain.ThreadCreationData) (domain.ThreadId, error)
	updateFunc        func(ctx context.Context, signer service.Signer, threadId domain.ThreadId, upd domain.ThreadUpdate) error
}

func (m *mockThreadService) Current(ctx context.Context) (domain.AgendaThread, error) {
	return m.currentFunc(ctx)
}

func (m *mockThreadService) EnsureCurrent(ctx context.Context, signer service.Signer) (domain.AgendaThread, error) {
	if m.ensureCurrentFunc != nil {
		return m.ensureCurrentFunc(ctx, signer)
	}
	return m.currentFunc(ctx)
}

func (m *mockThreadService) Create(ctx context.Context, signer service.Signer, data domain.ThreadCreationData) (domain.ThreadId, error) {
	return m.createFunc(ctx, signer, data)
}

func (m *mockThreadService) Update(ctx context.Context, signer service.Signer, threadId domain.ThreadId, upd domain.ThreadUpdate) error {
	return m.updateFunc(ctx, signer, threadId, upd)
}

type mockItemService struct {
	listFunc    func(ctx context.Context, threadId domain.ThreadId) ([]domain.AgendaItem, error)
	submitFunc  func(ctx context.Context, signer service.Signer, data domain.ItemCreationData) (domain.ItemId, error)
	updateFunc  func(ctx context.Context, signer service.Signer, threadId domain.ThreadId, itemId domain.ItemId, upd domain.ItemUpdate) error
	groupedFunc func(items []domain.AgendaItem) []domain.ItemGroup
	exportFunc  func(items []domain.AgendaItem, format string) (string, error)
}

func (m *mockItemService) List(ctx context.Context, threadId domain.ThreadId) ([]domain.AgendaItem, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, threadId)
	}
	return nil, nil
}

func (m *mockItemService) Submit(ctx context.Context, signer service.Signer, data domain.ItemCreationData) (domain.ItemId, error) {
	return m.submitFunc(ctx, signer, data)
}

func (m *mockItemService) Update(ctx context.Context, signer service.Signer, threadId domain.ThreadId, itemId domain.ItemId, upd domain.ItemUpdate) error {
	return m.updateFunc(ctx, signer, threadId, itemId, upd)
}

func (m *mockItemService) Grouped(items []domain.AgendaItem) []domain.ItemGroup {
	if m.groupedFunc != nil {
		return m.groupedFunc(items)
	}
	if len(items) == 0 {
		return nil
	}
	return []domain.ItemGroup{{Title: "Other Topics", Items: items}}
}

func (m *mockItemService) Export(items []domain.AgendaItem, format string) (string, error) {
	if m.exportFunc != nil {
		return m.exportFunc(items, format)
	}
	return "", nil
}

type mockAdminService struct {
	configFunc  func(ctx context.Context) (domain.AdminConfig, error)
	saveFunc    func(ctx context.Context, signer service.Signer, cfg domain.AdminConfig) error
	isAdminFunc func(ctx context.Context, pubkey domain.Pubkey) (bool, error)
}

func (m *mockAdminService) Config(ctx context.Context) (domain.AdminConfig, error) {
	if m.configFunc != nil {
		return m.configFunc(ctx)
	}
	return domain.DefaultAdminConfig(), nil
}

func (m *mockAdminService) Save(ctx context.Context, signer service.Signer, cfg domain.AdminConfig) error {
	return m.saveFunc(ctx, signer, cfg)
}

func (m *mockAdminService) IsAdmin(ctx context.Context, pubkey domain.Pubkey) (bool, error) {
	if m.isAdminFunc != nil {
		return m.isAdminFunc(ctx, pubkey)
	}
	return false, nil
}

func testHandler(auth service.AuthService, threads service.ThreadService, items service.ItemService, admin service.AdminService) *Handler {
	if auth == nil {
		auth = &mockAuthService{}
	}
	if admin == nil {
		admin = &mockAdminService{}
	}
	cfg := &config.Config{Public: config.Public{MaxItemChars: 2000, JwtTTL: time.Hour}}
	return New(auth, threads, items, admin, markdown.New(), cfg, nil)
}

// withSession puts a logged-in session into the request context the
// way the auth middleware would.
func withSession(r *http.Request, sess *domain.Session) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionContextKey, sess)
	return r.WithContext(ctx)
}

func testThread() domain.AgendaThread {
	return domain.AgendaThread{
		Id:              "thread-2026-08-24",
		Title:           "Weekly Agenda",
		StartDate:       time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		ShowSubmissions: true,
	}
}

func testItems() []domain.AgendaItem {
	return []domain.AgendaItem{
		{Id: "item-1", Content: "first item", SubmittedBy: &domain.User{Pubkey: "alice"}, CreatedAt: 200},
		{Id: "item-2", Content: "second item", IsAnonymous: true, CreatedAt: 100},
	}
}

func recordJSON(t *testing.T, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, r)
	return rr
}
