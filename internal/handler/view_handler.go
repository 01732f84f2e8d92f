package handler

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/pastebridge/internal/model"
	"github.com/hitoshi/pastebridge/internal/security"
)

//go:embed templates/*.html
var templateFS embed.FS

// ViewHandler はブラウザ向けHTMLビューのハンドラー。
// APIとは独立した読み取り専用の画面で、ポーリングで最新エントリを表示する。
type ViewHandler struct {
	service   NotepadServiceInterface
	sanitizer security.EntrySanitizerService
	templates *template.Template
	now       func() time.Time
}

// NewViewHandler はViewHandlerを生成する。テンプレートの解析に失敗した場合はpanicする。
// テンプレートはビルド時に埋め込まれるため、解析失敗は起動時に検出される。
func NewViewHandler(service NotepadServiceInterface, sanitizer security.EntrySanitizerService) *ViewHandler {
	return &ViewHandler{
		service:   service,
		sanitizer: sanitizer,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		now:       time.Now,
	}
}

// viewEntry はビューに表示するエントリ。本文はサニタイズ済み。
type viewEntry struct {
	Text      string
	Timestamp time.Time
}

// notepadViewData はノートパッドビューのテンプレートデータ。
type notepadViewData struct {
	Code           string
	Entries        []viewEntry
	EntryCount     int
	DaysRemaining  *int
	IsExpiringSoon bool
}

// Landing はトップページを処理する。
// GET /
func (h *ViewHandler) Landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.renderError(w, http.StatusNotFound, "notfound.html", nil)
		return
	}
	h.render(w, http.StatusOK, "landing.html", nil)
}

// NotepadView はノートパッドの閲覧ページを処理する。
// GET /n/{code}
// エントリ本文はHTMLタグを除去してから描画する。
func (h *ViewHandler) NotepadView(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	n, err := h.service.Get(r.Context(), code)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case model.ErrCodeNotepadNotFound:
				h.renderError(w, http.StatusNotFound, "notfound.html", map[string]string{"Code": code})
				return
			case model.ErrCodeNotepadExpired:
				h.renderError(w, http.StatusGone, "expired.html", map[string]string{"Code": code})
				return
			}
		}
		slog.Error("notepad view failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := h.now()
	entries := make([]viewEntry, len(n.Entries))
	for i, e := range n.Entries {
		entries[i] = viewEntry{
			Text:      h.sanitizer.Sanitize(e.Text),
			Timestamp: e.Timestamp,
		}
	}

	h.render(w, http.StatusOK, "notepad.html", notepadViewData{
		Code:           n.Code,
		Entries:        entries,
		EntryCount:     len(entries),
		DaysRemaining:  n.DaysRemaining(now),
		IsExpiringSoon: n.IsExpiringSoon(now),
	})
}

func (h *ViewHandler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template execution failed",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
	}
}

func (h *ViewHandler) renderError(w http.ResponseWriter, status int, name string, data any) {
	h.render(w, status, name, data)
}
