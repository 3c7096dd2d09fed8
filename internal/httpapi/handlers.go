package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/mhpenta/mifoto/session"
)

type credentialRequest struct {
	Key string `json:"key"`
}

type generateRequest struct {
	Instruction string `json:"instruction"`
}

func (r *Router) session(req *http.Request) *session.Session {
	return r.sessions.Get(getBrowserID(req.Context()))
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		r.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (r *Router) handleState(w http.ResponseWriter, req *http.Request) {
	r.writeState(w, req, r.session(req))
}

func (r *Router) writeState(w http.ResponseWriter, req *http.Request, s *session.Session) {
	snap, err := s.Snapshot(req.Context())
	if err != nil {
		r.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (r *Router) handleSaveCredential(w http.ResponseWriter, req *http.Request) {
	var body credentialRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		badRequest(w, "invalid json")
		return
	}
	s := r.session(req)
	if _, err := s.Resolver().Save(req.Context(), body.Key); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}

func (r *Router) handleClearCredential(w http.ResponseWriter, req *http.Request) {
	s := r.session(req)
	if err := s.Resolver().Invalidate(req.Context()); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}

func (r *Router) handleSelectCredential(w http.ResponseWriter, req *http.Request) {
	s := r.session(req)
	if _, err := s.Resolver().SelectWithHost(req.Context()); err != nil {
		r.writeError(w, err)
		return
	}
	r.writeState(w, req, s)
}
