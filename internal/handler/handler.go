package handler

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/kep-app/kep/internal/config"
	"github.com/kep-app/kep/internal/domain"
	internal_errors "github.com/kep-app/kep/internal/errors"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/markdown"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/service"
)

type Handler struct {
	auth    service.AuthService
	threads service.ThreadService
	items   service.ItemService
	admin   service.AdminService
	text    *markdown.TextProcessor
	cfg     *config.Config

	// Templates is swapped wholesale by the development reloader.
	Templates map[string]*template.Template
}

func New(
	auth service.AuthService,
	threads service.ThreadService,
	items service.ItemService,
	admin service.AdminService,
	text *markdown.TextProcessor,
	cfg *config.Config,
	templates map[string]*template.Template,
) *Handler {
	return &Handler{auth, threads, items, admin, text, cfg, templates}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("encoding response", "error", err)
	}
}

var errUnauthorized = &internal_errors.ErrorWithStatusCode{Message: "Please sign-in", StatusCode: http.StatusUnauthorized}

// signerFromRequest resolves the signing key of the authenticated
// session. Read-only sessions fail here with a 403.
func (h *Handler) signerFromRequest(r *http.Request) (service.Signer, *domain.Session, error) {
	sess := middleware.GetSessionFromContext(r)
	if sess == nil {
		return nil, nil, errUnauthorized
	}
	signer, err := h.auth.SignerFor(sess.Id)
	if err != nil {
		return nil, nil, err
	}
	return signer, sess, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
