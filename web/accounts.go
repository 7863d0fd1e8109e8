// ABOUTME: Account routes and the natural-language query boundary
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.ListAccounts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, visibleAccounts(r, accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !authorize(w, r, id) {
		return
	}
	account, err := s.svc.GetAccount(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, account)
}

func (s *Server) handleSaveAccount(w http.ResponseWriter, r *http.Request) {
	var account models.Account
	if err := decodeJSON(w, r, &account); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if account.ID != "" && !authorize(w, r, account.ID) {
		return
	}
	if err := s.svc.SaveAccount(r.Context(), &account); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, account)
}

// AgentQuery is the body of POST /agent/query.
type AgentQuery struct {
	Query     string `json:"query"`
	AccountID string `json:"accountId,omitempty"`
}

// AgentAnswer is what an agent returns.
type AgentAnswer struct {
	Summary string `json:"summary"`
	RawData any    `json:"rawData"`
}

// Agent answers free-text questions about the directory.
type Agent interface {
	Answer(ctx context.Context, q AgentQuery) (*AgentAnswer, error)
}

func (s *Server) handleAgentQuery(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		_ = WriteError(w, http.StatusNotImplemented, "not_implemented", "no query agent is configured", nil)
		return
	}
	var q AgentQuery
	if err := decodeJSON(w, r, &q); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(q.Query) == "" {
		s.writeServiceError(w, r, &directory.ValidationError{Field: "query", Message: "is required"})
		return
	}
	if c := claimsFrom(r.Context()); q.AccountID == "" && c != nil && len(c.Accounts) > 0 {
		if len(c.Accounts) > 1 {
			s.writeServiceError(w, r, &directory.ValidationError{Field: "accountId", Message: "is required for account-scoped tokens"})
			return
		}
		q.AccountID = c.Accounts[0]
	}
	if q.AccountID != "" && !authorize(w, r, q.AccountID) {
		return
	}
	ans, err := s.agent.Answer(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, ans)
}

// SearchAgent answers queries by ranking persons, within one account when
// the query names it and across every account otherwise.
type SearchAgent struct {
	Service *directory.Service
	Limit   int
}

func (a *SearchAgent) Answer(ctx context.Context, q AgentQuery) (*AgentAnswer, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = orgchart.DefaultSuggestLimit
	}

	accountIDs := []string{q.AccountID}
	if q.AccountID == "" {
		accounts, err := a.Service.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		accountIDs = accountIDs[:0]
		for _, acc := range accounts {
			accountIDs = append(accountIDs, acc.ID)
		}
	}

	var matches []orgchart.Match
	for _, id := range accountIDs {
		res, err := a.Service.Search(ctx, id, q.Query, limit)
		if err != nil {
			return nil, err
		}
		matches = append(matches, res.Suggestions...)
		if len(matches) >= limit {
			matches = matches[:limit]
			break
		}
	}

	if len(matches) == 0 {
		return &AgentAnswer{Summary: fmt.Sprintf("No one matches %q.", q.Query), RawData: []orgchart.Match{}}, nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Person.Name
		if names[i] == "" {
			names[i] = m.Person.Email
		}
	}
	return &AgentAnswer{
		Summary: fmt.Sprintf("%d match(es) for %q: %s", len(matches), q.Query, strings.Join(names, ", ")),
		RawData: matches,
	}, nil
}
