// ABOUTME: Person routes: fetch, tree, create, upsert, delete and batch relation updates
package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
)

// resolvePerson finds the person named by the path, honouring an optional
// accountId query parameter, and checks the caller may see them.
func (s *Server) resolvePerson(w http.ResponseWriter, r *http.Request) (*models.Person, bool) {
	accountID := r.URL.Query().Get("accountId")
	if accountID != "" && !authorize(w, r, accountID) {
		return nil, false
	}
	p, err := s.svc.GetPerson(r.Context(), accountID, mux.Vars(r)["email"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	if !authorize(w, r, p.AccountID) {
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolvePerson(w, r)
	if !ok {
		return
	}
	_ = WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handlePersonTree(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolvePerson(w, r)
	if !ok {
		return
	}
	tree, err := s.svc.PersonTree(r.Context(), p.AccountID, p.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, tree)
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var p models.Person
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if p.AccountID != "" && !authorize(w, r, p.AccountID) {
		return
	}
	created, err := s.svc.CreatePerson(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpsertPerson(w http.ResponseWriter, r *http.Request) {
	var req directory.UpsertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.AccountID != "" && !authorize(w, r, req.AccountID) {
		return
	}
	updated, err := s.svc.UpsertPerson(r.Context(), mux.Vars(r)["email"], req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolvePerson(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeletePerson(r.Context(), p.AccountID, p.Email); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "email": p.Email})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.AccountID != "" && !authorize(w, r, req.AccountID) {
		return
	}
	res, err := s.svc.BulkUpdate(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, res)
}
