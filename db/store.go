// ABOUTME: Storage contract shared by every persistence backend
// ABOUTME: Defines sentinel errors and the record-level helpers backends apply inside transactions
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/orgmap/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrHasReportees = errors.New("person has direct reports")
	ErrAmbiguous    = errors.New("email matches persons in more than one account")
)

// Store persists accounts and their persons. Persons are keyed by account and
// case-insensitive email. ListPersons and FindPersonsByEmail return records in
// insertion order. Batch writes are all-or-nothing. There is no version check,
// so concurrent writers to the same record overwrite each other.
type Store interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error

	ListPersons(ctx context.Context, accountID string) ([]models.Person, error)
	GetPerson(ctx context.Context, accountID, email string) (*models.Person, error)
	FindPersonsByEmail(ctx context.Context, email string) ([]models.Person, error)
	CreatePerson(ctx context.Context, person *models.Person) error
	SavePersons(ctx context.Context, accountID string, persons []models.Person) error
	ApplyBulkUpdate(ctx context.Context, accountID string, updates []models.RelationUpdate) error
	DeletePerson(ctx context.Context, accountID, email string) error

	Close() error
}

// PersonNotFound wraps ErrNotFound with the missing identity.
func PersonNotFound(accountID, email string) error {
	return fmt.Errorf("person %s in account %s: %w", email, accountID, ErrNotFound)
}

// CheckDeletable refuses deletion of a person who still manages others.
func CheckDeletable(p *models.Person) error {
	if len(p.Reportees) == 0 {
		return nil
	}
	return fmt.Errorf("cannot delete %s: %d direct report(s) must be reassigned first: %w",
		p.Email, len(p.Reportees), ErrHasReportees)
}

// PrepareNew normalizes a person about to be inserted.
func PrepareNew(p *models.Person, now time.Time) {
	p.Normalize()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// PrepareSave normalizes a person about to be upserted into accountID,
// carrying over the creation time of the stored record when there is one.
func PrepareSave(p *models.Person, accountID string, existing *models.Person, now time.Time) {
	p.Normalize()
	p.AccountID = accountID
	if existing != nil && !existing.CreatedAt.IsZero() {
		p.CreatedAt = existing.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// ApplyRelation overwrites the hierarchy fields of p with u.
func ApplyRelation(p *models.Person, u models.RelationUpdate, now time.Time) {
	p.ReportingTo = append([]string{}, u.ReportingTo...)
	p.Reportees = append([]string{}, u.Reportees...)
	p.UpdatedAt = now
}

// DetachFromManager removes email from the manager's reportees.
func DetachFromManager(manager *models.Person, email string, now time.Time) {
	kept := make([]string, 0, len(manager.Reportees))
	for _, r := range manager.Reportees {
		if !models.SameEmail(r, email) {
			kept = append(kept, r)
		}
	}
	manager.Reportees = kept
	manager.UpdatedAt = now
}

// Now is the timestamp source for stored records.
func Now() time.Time {
	return time.Now().UTC()
}
