// ABOUTME: Hierarchy operations: reparent, batch relation updates, charts, search and repair
// ABOUTME: Batches are audited against the overlaid roster and rejected before any write
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// BatchResult reports a committed batch.
type BatchResult struct {
	OK      bool   `json:"ok"`
	BatchID string `json:"batchId"`
	Updated int    `json:"updated"`
}

// Chart is a focused subtree with its geometry.
type Chart struct {
	Root      *orgchart.TreeNode `json:"root"`
	Ancestors []models.Person    `json:"ancestors"`
	Layout    orgchart.Layout    `json:"layout"`
}

// SearchResult holds the focus a query resolves to and ranked suggestions.
type SearchResult struct {
	Match       *models.Person   `json:"match"`
	Suggestions []orgchart.Match `json:"suggestions"`
}

func (s *Service) roster(ctx context.Context, accountID string) (*orgchart.Roster, error) {
	if accountID == "" {
		return nil, invalid("accountId", "is required")
	}
	persons, err := s.store.ListPersons(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return orgchart.NewRoster(persons), nil
}

// Reparent moves child under newManager. With dryRun the move is validated
// and the touched records returned without writing. An empty newManager
// promotes child to a root.
func (s *Service) Reparent(ctx context.Context, accountID, child, newManager string, dryRun bool) (*orgchart.Move, error) {
	roster, err := s.roster(ctx, accountID)
	if err != nil {
		return nil, err
	}
	mv, err := roster.Reparent(child, newManager)
	if err != nil {
		s.metrics.move("rejected")
		return nil, s.reparentError(err)
	}
	if dryRun {
		s.metrics.move("dry_run")
		return &mv, nil
	}
	if mv.NoOp {
		s.metrics.move("noop")
		return &mv, nil
	}
	if err := s.store.SavePersons(ctx, accountID, mv.Touched); err != nil {
		s.metrics.move("error")
		return nil, err
	}
	s.metrics.move("applied")
	s.log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"email":       mv.Child,
		"old_manager": mv.OldManager,
		"new_manager": mv.NewManager,
	}).Info("person reparented")
	return &mv, nil
}

// BulkUpdate applies a batch of relation updates atomically. The updates are
// overlaid on the current chart first; any consistency issue involving a
// touched person rejects the whole batch.
func (s *Service) BulkUpdate(ctx context.Context, req models.BulkUpdateRequest) (*BatchResult, error) {
	if err := s.checkStruct(&req); err != nil {
		s.metrics.batch("rejected", 0)
		return nil, err
	}
	seen := map[string]bool{}
	for i, u := range req.Updates {
		key := models.EmailKey(u.Email)
		if seen[key] {
			s.metrics.batch("rejected", 0)
			return nil, invalid(fmt.Sprintf("updates[%d].email", i), "%s appears more than once", u.Email)
		}
		seen[key] = true
	}

	roster, err := s.roster(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if err := roster.ApplyRelations(req.Updates); err != nil {
		s.metrics.batch("rejected", 0)
		return nil, s.reparentError(err)
	}

	var issues []orgchart.Issue
	for _, is := range orgchart.Audit(roster.Persons()) {
		for _, u := range req.Updates {
			if is.Involves(u.Email) {
				issues = append(issues, is)
				break
			}
		}
	}
	if len(issues) > 0 {
		s.metrics.batch("rejected", 0)
		return nil, &ConsistencyError{Issues: issues}
	}

	batchID := ulid.Make().String()
	if err := s.store.ApplyBulkUpdate(ctx, req.AccountID, req.Updates); err != nil {
		s.metrics.batch("error", 0)
		return nil, err
	}
	s.metrics.batch("committed", len(req.Updates))
	s.log.WithFields(logrus.Fields{
		"account_id": req.AccountID,
		"batch_id":   batchID,
		"records":    len(req.Updates),
	}).Info("batch committed")
	return &BatchResult{OK: true, BatchID: batchID, Updated: len(req.Updates)}, nil
}

// Focus resolves the person a chart is centred on. An empty focus picks the
// first root in storage order.
func (s *Service) Focus(roster *orgchart.Roster, focus string) (*models.Person, error) {
	persons := roster.Persons()
	if focus == "" {
		for i := range persons {
			if persons[i].IsRoot() {
				return &persons[i], nil
			}
		}
		if len(persons) > 0 {
			return &persons[0], nil
		}
		return nil, fmt.Errorf("chart is empty: %w", db.ErrNotFound)
	}
	if p, ok := roster.Get(focus); ok {
		return &p, nil
	}
	if p, ok := orgchart.Resolve(persons, focus); ok {
		return p, nil
	}
	return nil, fmt.Errorf("no person matches %q: %w", focus, db.ErrNotFound)
}

// ScopedTree returns the tree around the resolved focus.
func (s *Service) ScopedTree(ctx context.Context, accountID, focus string) (orgchart.ScopedTree, error) {
	roster, err := s.roster(ctx, accountID)
	if err != nil {
		return orgchart.ScopedTree{}, err
	}
	p, err := s.Focus(roster, focus)
	if err != nil {
		return orgchart.ScopedTree{}, err
	}
	return roster.ScopedTree(p.Email), nil
}

// Chart returns the scoped tree around focus with its layout.
func (s *Service) Chart(ctx context.Context, accountID, focus string) (*Chart, error) {
	tree, err := s.ScopedTree(ctx, accountID, focus)
	if err != nil {
		return nil, err
	}
	return &Chart{
		Root:      tree.Root,
		Ancestors: tree.Ancestors,
		Layout:    orgchart.ComputeLayout(tree.Root),
	}, nil
}

func (s *Service) Search(ctx context.Context, accountID, query string, limit int) (*SearchResult, error) {
	roster, err := s.roster(ctx, accountID)
	if err != nil {
		return nil, err
	}
	persons := roster.Persons()
	match, _ := orgchart.Resolve(persons, query)
	return &SearchResult{
		Match:       match,
		Suggestions: orgchart.Suggest(persons, query, limit),
	}, nil
}

// Audit lists the consistency issues of an account's chart.
func (s *Service) Audit(ctx context.Context, accountID string) ([]orgchart.Issue, error) {
	roster, err := s.roster(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return orgchart.Audit(roster.Persons()), nil
}

// Repair reconciles the chart and writes every changed record in one batch.
func (s *Service) Repair(ctx context.Context, accountID string) ([]models.Person, error) {
	roster, err := s.roster(ctx, accountID)
	if err != nil {
		return nil, err
	}
	_, changed := orgchart.Reconcile(roster.Persons())
	if len(changed) == 0 {
		return changed, nil
	}
	if err := s.store.SavePersons(ctx, accountID, changed); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"account_id": accountID, "records": len(changed)}).Warn("chart repaired")
	return changed, nil
}

// IsNotFound reports whether err means a missing account, person or focus.
func IsNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound) || errors.Is(err, orgchart.ErrUnknownPerson)
}
