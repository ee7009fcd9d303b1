package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/kep-app/kep/internal/domain"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/middleware"
)

const baseTemplate = "base.html"

// CommonTemplateData is available to every page via .Common.
type CommonTemplateData struct {
	LoggedIn bool
	ReadOnly bool
	IsAdmin  bool
	Npub     string
	Error    string
}

// TemplateData wraps page-specific data with common template data.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

func (h *Handler) commonTemplateData(r *http.Request) CommonTemplateData {
	common := CommonTemplateData{}
	sess := middleware.GetSessionFromContext(r)
	if sess == nil {
		return common
	}

	common.LoggedIn = true
	common.ReadOnly = sess.ReadOnly
	common.Npub = shortNpub(sess.Pubkey)
	if isAdmin, err := h.admin.IsAdmin(r.Context(), sess.Pubkey); err == nil {
		common.IsAdmin = isAdmin
	}
	return common
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateWithError(w, r, name, data, "")
}

func (h *Handler) renderTemplateWithError(w http.ResponseWriter, r *http.Request, name string, data any, errMsg string) {
	tmpl, ok := h.Templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.commonTemplateData(r)
	common.Error = errMsg

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, TemplateData{Data: data, Common: common}); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}
	_, _ = buf.WriteTo(w)
}

// ItemView is the template-facing shape of an agenda item.
type ItemView struct {
	Id          string
	ContentHTML template.HTML
	SubmittedBy string
	SubmittedAt time.Time
	Priority    *int
	Starred     bool
	Mine        bool
}

type GroupView struct {
	Title string
	Items []ItemView
}

func (h *Handler) renderItem(item domain.AgendaItem, viewer *domain.Session) ItemView {
	view := ItemView{
		Id:          item.Id,
		ContentHTML: h.text.Render(item.Content),
		SubmittedBy: "Anonymous",
		SubmittedAt: time.Unix(item.CreatedAt, 0).UTC(),
		Priority:    item.Priority,
		Starred:     item.Starred,
	}
	if item.SubmittedBy != nil {
		view.SubmittedBy = shortNpub(item.SubmittedBy.Pubkey)
		if viewer != nil && item.SubmittedBy.Pubkey == viewer.Pubkey {
			view.Mine = true
		}
	}
	return view
}

func (h *Handler) renderItems(items []domain.AgendaItem, viewer *domain.Session) []ItemView {
	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = h.renderItem(item, viewer)
	}
	return views
}

// shortNpub shows a pubkey as a truncated npub, matching how relays
// and other nostr clients display identities.
func shortNpub(pubkey domain.Pubkey) string {
	npub, err := nip19.EncodePublicKey(pubkey)
	if err != nil || len(npub) < 16 {
		if len(pubkey) >= 8 {
			return pubkey[:8] + "…"
		}
		return pubkey
	}
	return npub[:12] + "…" + npub[len(npub)-4:]
}

// MustLoadTemplates parses every page template against the shared base
// layout. Panics on malformed templates, same as config loading.
func MustLoadTemplates(tmplPath string) map[string]*template.Template {
	templates := make(map[string]*template.Template)
	files, err := os.ReadDir(tmplPath)
	if err != nil {
		panic("can't read template dir: " + err.Error())
	}

	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"formatTime": func(t time.Time) string { return t.Format("Jan 2 15:04") },
	}

	for _, f := range files {
		if filepath.Ext(f.Name()) != ".html" || f.Name() == baseTemplate {
			continue
		}
		templates[f.Name()] = template.Must(template.New(baseTemplate).Funcs(funcs).ParseFiles(
			path.Join(tmplPath, baseTemplate),
			path.Join(tmplPath, f.Name()),
		))
	}
	return templates
}
