package handler

import (
	"net/http"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/utils"
)

type preferencesBody struct {
	Theme         string   `json:"theme"`
	Accessibility []string `json:"accessibility"`
	Language      string   `json:"language"`
	UseAI         bool     `json:"useAI"`
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := sessionPubkey(r)
	if !ok {
		utils.WriteErrorAndStatusCode(w, errUnauthorized)
		return
	}

	prefs, err := h.auth.Preferences(pubkey)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, preferencesBody{
		Theme:         prefs.Theme,
		Accessibility: prefs.Accessibility,
		Language:      prefs.Language,
		UseAI:         prefs.UseAI,
	})
}

func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := sessionPubkey(r)
	if !ok {
		utils.WriteErrorAndStatusCode(w, errUnauthorized)
		return
	}

	var body preferencesBody
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err := h.auth.SavePreferences(pubkey, domain.Preferences{
		Theme:         body.Theme,
		Accessibility: body.Accessibility,
		Language:      body.Language,
		UseAI:         body.UseAI,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
