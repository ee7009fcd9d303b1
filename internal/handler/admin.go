package handler

import (
	"net/http"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/utils"
)

type adminConfigBody struct {
	Admins                   []string `json:"admins"`
	DefaultRelay             string   `validate:"required" json:"defaultRelay"`
	AdditionalRelays         []string `json:"additionalRelays"`
	ThreadAutoCreation       bool     `json:"threadAutoCreation"`
	ShowSubmissionsByDefault bool     `json:"showSubmissionsByDefault"`
}

func (h *Handler) GetAdminConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.admin.Config(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, adminConfigBody{
		Admins:                   cfg.Admins,
		DefaultRelay:             cfg.DefaultRelay,
		AdditionalRelays:         cfg.AdditionalRelays,
		ThreadAutoCreation:       cfg.ThreadAutoCreation,
		ShowSubmissionsByDefault: cfg.ShowSubmissionsByDefault,
	})
}

func (h *Handler) SaveAdminConfig(w http.ResponseWriter, r *http.Request) {
	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body adminConfigBody
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.admin.Save(r.Context(), signer, domain.AdminConfig{
		Admins:                   body.Admins,
		DefaultRelay:             body.DefaultRelay,
		AdditionalRelays:         body.AdditionalRelays,
		ThreadAutoCreation:       body.ThreadAutoCreation,
		ShowSubmissionsByDefault: body.ShowSubmissionsByDefault,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
