// ABOUTME: Org chart routes: flat list, focused chart, DOT graph, search, audit and single reparent
package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

// ReparentRequest is the body of a single move.
type ReparentRequest struct {
	Email      string `json:"email"`
	NewManager string `json:"newManager"`
	DryRun     bool   `json:"dryRun"`
}

// ReparentResponse reports a move. Error is set only for rejected dry runs.
type ReparentResponse struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	NoOp    bool            `json:"noOp"`
	Updates []models.Person `json:"updates"`
}

func accountVar(r *http.Request) string {
	return mux.Vars(r)["accountId"]
}

func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	persons, err := s.svc.ListPersons(r.Context(), accountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, persons)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	chart, err := s.svc.Chart(r.Context(), accountID, r.URL.Query().Get("focus"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, chart)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	tree, err := s.svc.ScopedTree(r.Context(), accountID, r.URL.Query().Get("focus"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	dot, err := s.graphs.GenerateOrgChart(tree)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(dot))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	limit := orgchart.DefaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeServiceError(w, r, &directory.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	res, err := s.svc.Search(r.Context(), accountID, r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	issues, err := s.svc.Audit(r.Context(), accountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	changed, err := s.svc.Repair(r.Context(), accountID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"updated": changed})
}

func (s *Server) handleReparent(w http.ResponseWriter, r *http.Request) {
	accountID := accountVar(r)
	if !authorize(w, r, accountID) {
		return
	}
	var req ReparentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if req.Email == "" {
		s.writeServiceError(w, r, &directory.ValidationError{Field: "email", Message: "is required"})
		return
	}

	mv, err := s.svc.Reparent(r.Context(), accountID, req.Email, req.NewManager, req.DryRun)
	if err != nil {
		if status, _, _ := errorStatus(err); req.DryRun && status == http.StatusBadRequest {
			_ = WriteJSON(w, http.StatusOK, ReparentResponse{OK: false, Error: err.Error(), Updates: []models.Person{}})
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ReparentResponse{OK: true, NoOp: mv.NoOp, Updates: mv.Touched})
}
