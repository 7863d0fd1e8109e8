// ABOUTME: Directory service over the person store
// ABOUTME: Every person write validates first and keeps reporting lines consistent through the roster
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
	"github.com/sirupsen/logrus"
)

// Service implements account and person operations.
type Service struct {
	store    db.Store
	log      logrus.FieldLogger
	validate *validator.Validate
	metrics  *Metrics
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records mutation counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store db.Store, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		log:      log,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store.
func (s *Service) Store() db.Store {
	return s.store
}

// PersonTree is a person with the chart around them.
type PersonTree struct {
	models.Person
	ReportingToTree []models.Person      `json:"reportingToTree"`
	ReporteesTree   []*orgchart.TreeNode `json:"reporteesTree"`
}

// UpsertRequest is the payload of a full-record PUT. A nil ReportingTo keeps
// the current manager; an empty one promotes the person to root.
type UpsertRequest struct {
	models.Person
	LogEntry *models.LogEntry `json:"logEntry,omitempty"`
}

func (s *Service) ListPersons(ctx context.Context, accountID string) ([]models.Person, error) {
	if accountID == "" {
		return nil, invalid("accountId", "is required")
	}
	return s.store.ListPersons(ctx, accountID)
}

// GetPerson finds a person. Without accountID the email must be unique
// across accounts.
func (s *Service) GetPerson(ctx context.Context, accountID, email string) (*models.Person, error) {
	if accountID != "" {
		return s.store.GetPerson(ctx, accountID, email)
	}
	found, err := s.store.FindPersonsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("person %s: %w", email, db.ErrNotFound)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%s (%d accounts), pass accountId: %w", email, len(found), db.ErrAmbiguous)
	}
}

// PersonTree returns the person with their manager chain and resolved reports.
func (s *Service) PersonTree(ctx context.Context, accountID, email string) (*PersonTree, error) {
	p, err := s.GetPerson(ctx, accountID, email)
	if err != nil {
		return nil, err
	}
	persons, err := s.store.ListPersons(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	tree := orgchart.BuildScopedTree(persons, p.Email)
	if tree.Root == nil {
		return nil, fmt.Errorf("person %s: %w", email, db.ErrNotFound)
	}
	return &PersonTree{
		Person:          tree.Root.Person,
		ReportingToTree: tree.Ancestors,
		ReporteesTree:   tree.Root.Children,
	}, nil
}

// CreatePerson adds a new person. A supplied manager is attached through the
// reparent path so the manager's reportees are updated in the same write.
func (s *Service) CreatePerson(ctx context.Context, p models.Person) (*models.Person, error) {
	p.Normalize()
	p.Reportees = []string{}
	if err := s.checkPerson(ctx, &p); err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"account_id": p.AccountID, "email": p.Email})

	manager := p.Manager()
	if manager == "" {
		if err := s.store.CreatePerson(ctx, &p); err != nil {
			return nil, err
		}
		log.Info("person created")
		return &p, nil
	}

	persons, err := s.store.ListPersons(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	roster := orgchart.NewRoster(persons)
	if roster.Has(p.Email) {
		return nil, fmt.Errorf("person %s in account %s: %w", p.Email, p.AccountID, db.ErrConflict)
	}

	p.ReportingTo = []string{}
	roster.Put(p)
	mv, err := roster.Reparent(p.Email, manager)
	if err != nil {
		return nil, s.reparentError(err)
	}
	if err := s.store.SavePersons(ctx, p.AccountID, mv.Touched); err != nil {
		return nil, err
	}
	log.WithField("manager", mv.NewManager).Info("person created")
	return s.store.GetPerson(ctx, p.AccountID, p.Email)
}

// UpsertPerson creates or replaces the profile of the person at email.
// Stored reportees and log history are kept; a log entry is appended.
func (s *Service) UpsertPerson(ctx context.Context, email string, req UpsertRequest) (*models.Person, error) {
	body := req.Person
	if body.Email != "" && !models.SameEmail(body.Email, email) {
		return nil, invalid("email", "cannot be changed (path %s, body %s)", email, body.Email)
	}
	if body.AccountID == "" {
		return nil, invalid("accountId", "is required")
	}
	if len(body.ReportingTo) > 1 {
		return nil, invalid("reportingTo", "must have at most 1 entry")
	}

	persons, err := s.store.ListPersons(ctx, body.AccountID)
	if err != nil {
		return nil, err
	}
	roster := orgchart.NewRoster(persons)

	updated, exists := roster.Get(email)
	if !exists {
		updated = models.Person{
			Email:       strings.TrimSpace(email),
			AccountID:   body.AccountID,
			ReportingTo: []string{},
			Reportees:   []string{},
			LogHistory:  body.LogHistory,
		}
	}
	updated.Name = body.Name
	updated.Designation = body.Designation
	updated.Location = body.Location
	updated.BusinessUnit = body.BusinessUnit
	updated.Sentiment = body.Sentiment
	updated.Awareness = body.Awareness
	updated.Type = body.Type

	if entry := req.LogEntry; entry != nil {
		e := *entry
		if e.Timestamp.IsZero() {
			e.Timestamp = s.now()
		}
		if e.Sentiment != "" {
			updated.Sentiment = e.Sentiment
		}
		if e.Awareness != "" {
			updated.Awareness = e.Awareness
		}
		updated.LogHistory = append(updated.LogHistory, e)
	}

	updated.Normalize()
	if err := s.checkPerson(ctx, &updated); err != nil {
		return nil, err
	}
	roster.Put(updated)

	changed := map[string]models.Person{updated.Key(): updated}
	order := []string{updated.Key()}
	if body.ReportingTo != nil {
		mv, err := roster.Reparent(updated.Email, body.Manager())
		if err != nil {
			return nil, s.reparentError(err)
		}
		for _, t := range mv.Touched {
			if _, seen := changed[t.Key()]; !seen {
				order = append(order, t.Key())
			}
			changed[t.Key()] = t
		}
	}

	writes := make([]models.Person, 0, len(order))
	for _, key := range order {
		writes = append(writes, changed[key])
	}
	if err := s.store.SavePersons(ctx, body.AccountID, writes); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account_id": body.AccountID,
		"email":      updated.Email,
		"created":    !exists,
		"records":    len(writes),
	}).Info("person saved")
	return s.store.GetPerson(ctx, body.AccountID, updated.Email)
}

// DeletePerson removes a person who has no direct reports.
func (s *Service) DeletePerson(ctx context.Context, accountID, email string) error {
	p, err := s.GetPerson(ctx, accountID, email)
	if err != nil {
		return err
	}
	if err := db.CheckDeletable(p); err != nil {
		return err
	}
	if err := s.store.DeletePerson(ctx, p.AccountID, p.Email); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"account_id": p.AccountID, "email": p.Email}).Info("person deleted")
	return nil
}

// ImportPersons validates full records and writes them in one batch. Reporting
// lines are stored as given; run Audit afterwards to find inconsistencies.
func (s *Service) ImportPersons(ctx context.Context, accountID string, persons []models.Person) (int, error) {
	if accountID == "" {
		return 0, invalid("accountId", "is required")
	}
	seen := make(map[string]bool, len(persons))
	batch := make([]models.Person, 0, len(persons))
	for i := range persons {
		p := persons[i].Clone()
		if p.AccountID == "" {
			p.AccountID = accountID
		}
		if p.AccountID != accountID {
			return 0, invalid(fmt.Sprintf("persons[%d].accountId", i), "must be %s", accountID)
		}
		p.Normalize()
		if err := s.checkPerson(ctx, &p); err != nil {
			return 0, fmt.Errorf("persons[%d]: %w", i, err)
		}
		if seen[p.Key()] {
			return 0, invalid(fmt.Sprintf("persons[%d].email", i), "%s appears more than once", p.Email)
		}
		seen[p.Key()] = true
		batch = append(batch, p)
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.store.SavePersons(ctx, accountID, batch); err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"account_id": accountID, "records": len(batch)}).Info("persons imported")
	return len(batch), nil
}

// checkPerson validates fields and the account's option lists.
func (s *Service) checkPerson(ctx context.Context, p *models.Person) error {
	if err := s.checkStruct(p); err != nil {
		return err
	}
	account, err := s.store.GetAccount(ctx, p.AccountID)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return checkAccountOptions(account, p)
}

// reparentError maps roster failures onto the store's error taxonomy.
func (s *Service) reparentError(err error) error {
	if errors.Is(err, orgchart.ErrUnknownPerson) {
		return fmt.Errorf("%s: %w", err.Error(), db.ErrNotFound)
	}
	return err
}
