package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"stamp": func(e models.AttackEvent) string { return e.Timestamp.Format(models.TimestampLayout) },
}).ParseFS(templateFS, "templates/*.html"))

// pageData - данные HTML-страниц.
type pageData struct {
	Title  string
	Active string
	Events []models.AttackEvent
}

// HandleIndex отдаёт главную страницу с последними десятью атаками.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Recent(r.Context(), defaultRecentLimit)
	if err != nil {
		h.internalError(w, "failed to load recent attacks", err)
		return
	}
	h.render(w, "index.html", pageData{Title: "Dashboard", Active: "index", Events: events})
}

// HandleLogs отдаёт список всех атак, новые первыми.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Recent(r.Context(), 0)
	if err != nil {
		h.internalError(w, "failed to load attacks", err)
		return
	}
	h.render(w, "logs.html", pageData{Title: "Logs", Active: "logs", Events: events})
}

// HandleAnalytics отдаёт страницу аналитики. Данные загружаются через API.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	h.render(w, "analytics.html", pageData{Title: "Analytics", Active: "analytics"})
}

// HandleSettings отдаёт страницу настроек оповещений.
func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	h.render(w, "settings.html", pageData{Title: "Settings", Active: "settings"})
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.internalError(w, "failed to render "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
