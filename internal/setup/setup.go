package setup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kep-app/kep/internal/cache"
	"github.com/kep-app/kep/internal/config"
	"github.com/kep-app/kep/internal/handler"
	"github.com/kep-app/kep/internal/jwt"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/markdown"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/relay"
	"github.com/kep-app/kep/internal/service"
	"github.com/kep-app/kep/internal/store"
	"github.com/kep-app/kep/internal/utils"
)

const (
	templateReloadInterval = 5 * time.Second
	sessionSweepInterval   = time.Hour
)

type Dependencies struct {
	Handler *handler.Handler
	Auth    *middleware.Auth
	Config  *config.Config

	store *store.Store
	relay *relay.Client
	stop  context.CancelFunc
}

// SetupDependencies wires every layer together: store, relay client,
// services, middleware and handler.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	st, err := store.New(cfg.Public.StorePath, cfg.StoreSecret())
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	relayClient := relay.New(cfg.Relays(), cfg.Public.QueryTimeout)
	sharedCache := cache.New(cfg.Public.CacheTTL)
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	adminService := service.NewAdmin(relayClient, sharedCache, &utils.RelayURLValidator{})
	threadService := service.NewThread(relayClient, sharedCache, &utils.ThreadTitleValidator{}, adminService)
	itemService := service.NewItem(relayClient, sharedCache, &utils.ItemContentValidator{MaxChars: cfg.Public.MaxItemChars})
	authService := service.NewAuth(st, jwtService)

	// Point the relay client at the published relay set when one is
	// already resolvable. Best effort, the bootstrap set still works.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Public.QueryTimeout)
	defer cancel()
	if adminCfg, err := adminService.Config(ctx); err != nil {
		logger.Log.Warn("can't resolve admin config on startup", "error", err)
	} else if len(adminCfg.Relays()) > 0 {
		relayClient.SetRelays(adminCfg.Relays())
	}

	templates := handler.MustLoadTemplates(cfg.Public.TemplateDir)
	h := handler.New(authService, threadService, itemService, adminService, markdown.New(), cfg, templates)
	startTemplateReloader(h, cfg.Public.TemplateDir)

	authMw := middleware.NewAuth(jwtService, authService, adminService, false)

	sweepCtx, stop := context.WithCancel(context.Background())
	st.StartSessionSweeper(sweepCtx, cfg.JwtTTL(), sessionSweepInterval)

	return &Dependencies{
		Handler: h,
		Auth:    authMw,
		Config:  cfg,
		store:   st,
		relay:   relayClient,
		stop:    stop,
	}, nil
}

func (d *Dependencies) Cleanup() {
	d.stop()
	d.relay.Close()
	if err := d.store.Close(); err != nil {
		logger.Log.Error("closing store", "error", err)
	}
}

func startTemplateReloader(h *handler.Handler, tmplPath string) {
	if os.Getenv("ENV") == "development" {
		ticker := time.NewTicker(templateReloadInterval)
		go func() {
			for range ticker.C {
				h.Templates = handler.MustLoadTemplates(tmplPath)
			}
		}()
	}
}
