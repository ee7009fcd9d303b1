package handler

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/middleware"
	"github.com/kep-app/kep/internal/service"
	"github.com/kep-app/kep/internal/utils"
)

// ThreadView is the template-facing shape of the agenda thread.
type ThreadView struct {
	Id              domain.ThreadId
	Title           string
	DescriptionHTML template.HTML
	StartDate       time.Time
	EndDate         time.Time
	ShowSubmissions bool
}

func (h *Handler) renderThread(thread domain.AgendaThread) ThreadView {
	return ThreadView{
		Id:              thread.Id,
		Title:           thread.Title,
		DescriptionHTML: h.text.Render(thread.Description),
		StartDate:       thread.StartDate,
		EndDate:         thread.EndDate,
		ShowSubmissions: thread.ShowSubmissions,
	}
}

type indexPageData struct {
	Thread       *ThreadView
	Items        []ItemView
	MaxItemChars int
}

func (h *Handler) indexData(r *http.Request) (indexPageData, error) {
	data := indexPageData{MaxItemChars: h.cfg.Public.MaxItemChars}

	thread, items, err := h.currentThreadWithItems(r)
	if err == service.ErrThreadNotFound {
		return data, nil
	}
	if err != nil {
		return data, err
	}

	view := h.renderThread(thread)
	data.Thread = &view
	data.Items = h.renderItems(items, middleware.GetSessionFromContext(r))
	return data, nil
}

func (h *Handler) IndexPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.indexData(r)
	if err != nil {
		logger.Log.Error("loading index page", "error", err)
		h.renderTemplateWithError(w, r, "index.html", data, "Can't reach the relays right now.")
		return
	}
	h.renderTemplate(w, r, "index.html", data)
}

// SubmitItemForm handles the item submission form on the index page.
func (h *Handler) SubmitItemForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		h.renderIndexWithError(w, r, err)
		return
	}

	thread, err := h.threads.EnsureCurrent(r.Context(), signer)
	if err != nil {
		h.renderIndexWithError(w, r, err)
		return
	}

	_, err = h.items.Submit(r.Context(), signer, domain.ItemCreationData{
		ThreadId:    thread.Id,
		Content:     r.FormValue("content"),
		IsAnonymous: r.FormValue("anonymous") == "on",
	})
	if err != nil {
		h.renderIndexWithError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ModerateItemForm handles the inline priority/star controls shown to
// admins on the index page.
func (h *Handler) ModerateItemForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		h.renderIndexWithError(w, r, err)
		return
	}

	var upd domain.ItemUpdate
	if v := r.FormValue("priority"); v != "" {
		if priority, err := strconv.Atoi(v); err == nil {
			upd.Priority = &priority
		}
	}
	if v := r.FormValue("starred"); v != "" {
		starred := v == "true"
		upd.Starred = &starred
	}

	err = h.items.Update(r.Context(), signer, r.FormValue("thread"), r.FormValue("item"), upd)
	if err != nil {
		h.renderIndexWithError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderIndexWithError(w http.ResponseWriter, r *http.Request, err error) {
	data, dataErr := h.indexData(r)
	if dataErr != nil {
		logger.Log.Error("loading index page", "error", dataErr)
	}
	h.renderTemplateWithError(w, r, "index.html", data, err.Error())
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, r, "login.html", nil)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	token, _, err := h.auth.Login(r.FormValue("credential"))
	if err != nil {
		h.renderTemplateWithError(w, r, "login.html", nil, err.Error())
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.cfg.JwtTTL().Seconds())))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GenerateForm shows a freshly generated keypair on the login page so
// a new user can save the nsec and log in with it.
func (h *Handler) GenerateForm(w http.ResponseWriter, r *http.Request) {
	kp, err := h.auth.Generate()
	if err != nil {
		h.renderTemplateWithError(w, r, "login.html", nil, err.Error())
		return
	}
	h.renderTemplate(w, r, "login.html", kp)
}

func (h *Handler) LogoutForm(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.GetSessionFromContext(r); sess != nil {
		if err := h.auth.Logout(sess.Id); err != nil {
			logger.Log.Error("logging out", "error", err)
		}
	}
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type adminPageData struct {
	Config domain.AdminConfig
	Thread *ThreadView
}

func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	data := adminPageData{}

	cfg, err := h.admin.Config(r.Context())
	if err != nil {
		h.renderTemplateWithError(w, r, "admin.html", data, "Can't load the config from the relays.")
		return
	}
	data.Config = cfg

	if thread, err := h.threads.Current(r.Context()); err == nil {
		view := h.renderThread(thread)
		data.Thread = &view
	}

	h.renderTemplate(w, r, "admin.html", data)
}

func (h *Handler) AdminConfigForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	cfg := domain.AdminConfig{
		Admins:                   splitAndTrim(r.FormValue("admins")),
		DefaultRelay:             strings.TrimSpace(r.FormValue("defaultRelay")),
		AdditionalRelays:         splitAndTrim(r.FormValue("additionalRelays")),
		ThreadAutoCreation:       r.FormValue("threadAutoCreation") == "on",
		ShowSubmissionsByDefault: r.FormValue("showSubmissionsByDefault") == "on",
	}

	if err := h.admin.Save(r.Context(), signer, cfg); err != nil {
		h.renderTemplateWithError(w, r, "admin.html", adminPageData{Config: cfg}, err.Error())
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) ThreadForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	signer, _, err := h.signerFromRequest(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	threadId := r.FormValue("thread")
	if threadId == "" {
		_, err = h.threads.Create(r.Context(), signer, domain.ThreadCreationData{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
		})
	} else {
		title := r.FormValue("title")
		description := r.FormValue("description")
		show := r.FormValue("showSubmissions") == "on"
		err = h.threads.Update(r.Context(), signer, threadId, domain.ThreadUpdate{
			Title:           &title,
			Description:     &description,
			ShowSubmissions: &show,
		})
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

type groupsPageData struct {
	Thread *ThreadView
	Groups []GroupView
}

func (h *Handler) GroupsPage(w http.ResponseWriter, r *http.Request) {
	data := groupsPageData{}

	thread, err := h.threads.Current(r.Context())
	if err != nil {
		h.renderTemplateWithError(w, r, "groups.html", data, "No agenda thread yet.")
		return
	}
	view := h.renderThread(thread)
	data.Thread = &view

	items, err := h.items.List(r.Context(), thread.Id)
	if err != nil {
		h.renderTemplateWithError(w, r, "groups.html", data, err.Error())
		return
	}
	groups := h.items.Grouped(h.visibleItems(r, thread, items))

	viewer := middleware.GetSessionFromContext(r)
	data.Groups = make([]GroupView, len(groups))
	for i, g := range groups {
		data.Groups[i] = GroupView{Title: g.Title, Items: h.renderItems(g.Items, viewer)}
	}

	h.renderTemplate(w, r, "groups.html", data)
}

// ExportCurrent resolves the current thread and streams its agenda in
// the requested format.
func (h *Handler) ExportCurrent(w http.ResponseWriter, r *http.Request) {
	thread, err := h.threads.Current(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}
	items, err := h.items.List(r.Context(), thread.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	out, err := h.items.Export(h.visibleItems(r, thread, items), format)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"agenda-"+thread.Id+"."+extension(format)+"\"")
	w.Write([]byte(out))
}

func (h *Handler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	pubkey, ok := sessionPubkey(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	prefs, err := h.auth.Preferences(pubkey)
	if err != nil {
		h.renderTemplateWithError(w, r, "settings.html", domain.Preferences{}, err.Error())
		return
	}
	h.renderTemplate(w, r, "settings.html", prefs)
}

func (h *Handler) SettingsForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	pubkey, ok := sessionPubkey(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	prefs := domain.Preferences{
		Theme:         r.FormValue("theme"),
		Accessibility: r.Form["accessibility"],
		Language:      r.FormValue("language"),
		UseAI:         r.FormValue("useAI") == "on",
	}
	if err := h.auth.SavePreferences(pubkey, prefs); err != nil {
		h.renderTemplateWithError(w, r, "settings.html", prefs, err.Error())
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func splitAndTrim(input string) []string {
	var result []string
	for _, part := range strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
