package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"activityboard/internal/application/board"
)

// maxFormBytes bounds the signup and unregister form bodies.
const maxFormBytes = 16 << 10

// pageData is the template model: the board document plus page chrome.
type pageData struct {
	board.Document
	Title              string
	Year               int
	HideAfterMs        int64
	NoParticipantsText string
}

// handleIndex handles GET /.
// Every page load re-fetches the activities and renders them with the
// visitor's pending feedback, if any.
// PRE: none
// POST: 200 with the rendered board, even when the load failed
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	fb := s.flash.pop(w, r)
	s.board.LoadActivities(r.Context())
	s.render(w, r, fb)
}

// handleSignup handles POST /signup with form fields email and activity.
// The outcome travels to the visitor's next render as a flash cookie.
func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	fb := s.board.SubmitSignup(r.Context(), r.PostForm.Get("activity"), r.PostForm.Get("email"))
	s.flash.set(w, fb)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleUnregister handles POST /unregister with form fields activity and email.
// A failure reaches only this visitor, as the alert on their next render.
func (s *server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	fb := s.board.RemoveParticipant(r.Context(), r.PostForm.Get("activity"), r.PostForm.Get("email"))
	s.flash.set(w, fb)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handlePerf handles GET /debug/perf with the last hour of timings.
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	snap := s.collector.Snapshot(s.timeNow().Add(-time.Hour), 10)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.Error("perf_encode_failed", "error", err.Error())
	}
}

// render executes the page into a buffer so a template failure never sends half a page.
func (s *server) render(w http.ResponseWriter, r *http.Request, fb board.Feedback) {
	tpl, err := s.page.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
	})

	data := pageData{
		Document:           s.board.View(fb),
		Title:              s.title,
		Year:               s.timeNow().Year(),
		HideAfterMs:        board.MessageTTL.Milliseconds(),
		NoParticipantsText: board.NoParticipantsText,
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// parseForm reads a bounded url-encoded body, replying 400 on failure.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return false
	}
	return true
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
