package handler

import (
	"net/http"

	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/utils"
)

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Path:     "/",
		Name:     middleware.SessionCookie,
		Value:    value,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Credential string `validate:"required" json:"credential"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	token, sess, err := h.auth.Login(body.Credential)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.cfg.JwtTTL().Seconds())))
	writeJSON(w, map[string]any{
		"pubkey":   sess.Pubkey,
		"readOnly": sess.ReadOnly,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSessionFromContext(r); sess != nil {
		if err := h.auth.Logout(sess.Id); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	w.WriteHeader(http.StatusOK)
}

// GenerateKeypair hands out a fresh identity for onboarding. The nsec
// is shown exactly once and never stored.
func (h *Handler) GenerateKeypair(w http.ResponseWriter, r *http.Request) {
	kp, err := h.auth.Generate()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, map[string]string{
		"nsec":   kp.Nsec,
		"npub":   kp.Npub,
		"pubkey": kp.Pubkey,
	})
}

func (h *Handler) Whoami(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r)
	if sess == nil {
		utils.WriteErrorAndStatusCode(w, errUnauthorized)
		return
	}

	isAdmin, err := h.admin.IsAdmin(r.Context(), sess.Pubkey)
	if err != nil {
		// session info is still useful when the relays are down
		isAdmin = false
	}

	writeJSON(w, map[string]any{
		"pubkey":   sess.Pubkey,
		"readOnly": sess.ReadOnly,
		"isAdmin":  isAdmin,
	})
}
