package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/utils"
)

type itemResponse struct {
	Id          domain.ItemId `json:"id"`
	Content     string        `json:"content"`
	SubmittedBy string        `json:"submittedBy,omitempty"`
	CreatedAt   int64         `json:"createdAt"`
	IsAnonymous bool          `json:"isAnonymous"`
	Priority    *int          `json:"priority,omitempty"`
	Starred     bool          `json:"starred"`
}

func itemResponses(items []domain.AgendaItem) []itemResponse {
	out := make([]itemResponse, len(items))
	for i, item := range items {
		out[i] = itemResponse{
			Id:          item.Id,
			Content:     item.Content,
			CreatedAt:   item.CreatedAt,
			IsAnonymous: item.IsAnonymous,
			Priority:    item.Priority,
			Starred:     item.Starred,
		}
		if item.SubmittedBy != nil {
			out[i].SubmittedBy = item.SubmittedBy.Pubkey
		}
	}
	return out
}

// threadFor resolves the thread whose visibility governs a request for
// threadId. Past threads stay queryable; for those the configured
// default visibility applies instead of the live thread's flag.
func (h *Handler) threadFor(r *http.Request, threadId domain.ThreadId) domain.AgendaThread {
	thread, err := h.threads.Current(r.Context())
	if err != nil || thread.Id != threadId {
		show := true
		if cfg, cfgErr := h.admin.Config(r.Context()); cfgErr == nil {
			show = cfg.ShowSubmissionsByDefault
		}
		thread = domain.AgendaThread{Id: threadId, ShowSubmissions: show}
	}
	return thread
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")
	thread := h.threadFor(r, threadId)

	items, err := h.items.List(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, itemResponses(h.visibleItems(r, thread, items)))
}

func (h *Handler) SubmitItem(w http.ResponseWriter, r *http.Request) {
	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	threadId := chi.URLParam(r, "thread")

	var body struct {
		Content     string `validate:"required" json:"content"`
		IsAnonymous bool   `json:"isAnonymous"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	itemId, err := h.items.Submit(r.Context(), signer, domain.ItemCreationData{
		ThreadId:    threadId,
		Content:     body.Content,
		IsAnonymous: body.IsAnonymous,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"id": itemId})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	threadId := chi.URLParam(r, "thread")
	itemId := chi.URLParam(r, "item")

	var body struct {
		Priority *int  `json:"priority"`
		Starred  *bool `json:"starred"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.items.Update(r.Context(), signer, threadId, itemId, domain.ItemUpdate{
		Priority: body.Priority,
		Starred:  body.Starred,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) GroupedItems(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")
	thread := h.threadFor(r, threadId)

	items, err := h.items.List(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	groups := h.items.Grouped(h.visibleItems(r, thread, items))

	type groupResponse struct {
		Title string         `json:"title"`
		Items []itemResponse `json:"items"`
	}
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{Title: g.Title, Items: itemResponses(g.Items)}
	}
	writeJSON(w, out)
}

func (h *Handler) ExportAgenda(w http.ResponseWriter, r *http.Request) {
	threadId := chi.URLParam(r, "thread")
	thread := h.threadFor(r, threadId)
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	items, err := h.items.List(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	out, err := h.items.Export(h.visibleItems(r, thread, items), format)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "agenda-"+threadId+"."+extension(format)))
	w.Write([]byte(out))
}

func extension(format string) string {
	if format == "json" {
		return "json"
	}
	return "md"
}

// sessionPubkey is a small helper for handlers that only need the
// viewer identity, not a signer.
func sessionPubkey(r *http.Request) (domain.Pubkey, bool) {
	sess := middleware.GetSessionFromContext(r)
	if sess == nil {
		return "", false
	}
	return sess.Pubkey, true
}
