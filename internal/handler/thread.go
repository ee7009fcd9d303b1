package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/service"
	"github.com/kep-app/kep/internal/utils"
)

type threadResponse struct {
	Id              domain.ThreadId `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	ShowSubmissions bool            `json:"showSubmissions"`
	Items           []itemResponse  `json:"items"`
}

// visibleItems applies the submission visibility rule: when the thread
// hides submissions, non-admins only see their own items.
func (h *Handler) visibleItems(r *http.Request, thread domain.AgendaThread, items []domain.AgendaItem) []domain.AgendaItem {
	if thread.ShowSubmissions {
		return items
	}

	sess := middleware.GetSessionFromContext(r)
	if sess != nil {
		if isAdmin, err := h.admin.IsAdmin(r.Context(), sess.Pubkey); err == nil && isAdmin {
			return items
		}
	}

	var own []domain.AgendaItem
	for _, item := range items {
		if sess != nil && item.SubmittedBy != nil && item.SubmittedBy.Pubkey == sess.Pubkey {
			own = append(own, item)
		}
	}
	return own
}

// currentThreadWithItems resolves the current thread and its visible
// items, auto-creating the week's thread when a signing session is
// around and the config allows it.
func (h *Handler) currentThreadWithItems(r *http.Request) (domain.AgendaThread, []domain.AgendaItem, error) {
	var signer service.Signer
	if sess := middleware.GetSessionFromContext(r); sess != nil && !sess.ReadOnly {
		signer, _ = h.auth.SignerFor(sess.Id)
	}

	thread, err := h.threads.EnsureCurrent(r.Context(), signer)
	if err != nil {
		return domain.AgendaThread{}, nil, err
	}

	items, err := h.items.List(r.Context(), thread.Id)
	if err != nil {
		return thread, nil, err
	}
	return thread, h.visibleItems(r, thread, items), nil
}

func (h *Handler) GetCurrentThread(w http.ResponseWriter, r *http.Request) {
	thread, items, err := h.currentThreadWithItems(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, threadResponse{
		Id:              thread.Id,
		Title:           thread.Title,
		Description:     thread.Description,
		StartDate:       thread.StartDate,
		EndDate:         thread.EndDate,
		ShowSubmissions: thread.ShowSubmissions,
		Items:           itemResponses(items),
	})
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body struct {
		Title       string `validate:"required" json:"title"`
		Description string `json:"description"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	threadId, err := h.threads.Create(r.Context(), signer, domain.ThreadCreationData{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"id": threadId})
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	threadId := chi.URLParam(r, "thread")

	var body struct {
		Title           *string `json:"title"`
		Description     *string `json:"description"`
		ShowSubmissions *bool   `json:"showSubmissions"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.threads.Update(r.Context(), signer, threadId, domain.ThreadUpdate{
		Title:           body.Title,
		Description:     body.Description,
		ShowSubmissions: body.ShowSubmissions,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
