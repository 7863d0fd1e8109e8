// ABOUTME: Person persistence for the SQLite store
// ABOUTME: Create, batch upsert, relation batch and guarded delete, each in one transaction
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harperreed/orgmap/models"
)

func (s *SQLiteStore) ListPersons(ctx context.Context, accountID string) ([]models.Person, error) {
	return scanPersons(ctx, s.db, `
		SELECT doc FROM persons WHERE account_id = ? ORDER BY seq
	`, accountID)
}

func (s *SQLiteStore) FindPersonsByEmail(ctx context.Context, email string) ([]models.Person, error) {
	return scanPersons(ctx, s.db, `
		SELECT doc FROM persons WHERE email_key = ? ORDER BY seq
	`, models.EmailKey(email))
}

func (s *SQLiteStore) GetPerson(ctx context.Context, accountID, email string) (*models.Person, error) {
	return getPerson(ctx, s.db, accountID, email)
}

func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	if person == nil || person.AccountID == "" || person.Email == "" {
		return fmt.Errorf("create person: account and email are required")
	}
	PrepareNew(person, Now())

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getPerson(ctx, tx, person.AccountID, person.Email); err == nil {
			return fmt.Errorf("person %s in account %s: %w", person.Email, person.AccountID, ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		doc, err := json.Marshal(person)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO persons (account_id, email_key, doc, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, person.AccountID, person.Key(), doc, person.CreatedAt, person.UpdatedAt)
		if isUniqueViolation(err) {
			return fmt.Errorf("person %s in account %s: %w", person.Email, person.AccountID, ErrConflict)
		}
		return err
	})
}

func (s *SQLiteStore) SavePersons(ctx context.Context, accountID string, persons []models.Person) error {
	now := Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range persons {
			p := persons[i].Clone()
			existing, err := getPerson(ctx, tx, accountID, p.Email)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			PrepareSave(&p, accountID, existing, now)
			if err := upsertPerson(ctx, tx, &p); err != nil {
				return fmt.Errorf("save %s: %w", p.Email, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ApplyBulkUpdate(ctx context.Context, accountID string, updates []models.RelationUpdate) error {
	now := Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range updates {
			p, err := getPerson(ctx, tx, accountID, u.Email)
			if err != nil {
				return err
			}
			ApplyRelation(p, u, now)
			if err := upsertPerson(ctx, tx, p); err != nil {
				return fmt.Errorf("update %s: %w", u.Email, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) DeletePerson(ctx context.Context, accountID, email string) error {
	now := Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := getPerson(ctx, tx, accountID, email)
		if err != nil {
			return err
		}
		if err := CheckDeletable(p); err != nil {
			return err
		}

		if mgrEmail := p.Manager(); mgrEmail != "" {
			mgr, err := getPerson(ctx, tx, accountID, mgrEmail)
			switch {
			case err == nil:
				DetachFromManager(mgr, p.Email, now)
				if err := upsertPerson(ctx, tx, mgr); err != nil {
					return err
				}
			case !errors.Is(err, ErrNotFound):
				return err
			}
		}

		result, err := tx.ExecContext(ctx, `
			DELETE FROM persons WHERE account_id = ? AND email_key = ?
		`, accountID, models.EmailKey(email))
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return PersonNotFound(accountID, email)
		}
		return nil
	})
}

func getPerson(ctx context.Context, q queryer, accountID, email string) (*models.Person, error) {
	var doc []byte
	err := q.QueryRowContext(ctx, `
		SELECT doc FROM persons WHERE account_id = ? AND email_key = ?
	`, accountID, models.EmailKey(email)).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, PersonNotFound(accountID, email)
	}
	if err != nil {
		return nil, err
	}

	var p models.Person
	if err := decodeDoc(doc, &p); err != nil {
		return nil, fmt.Errorf("decode person %s: %w", email, err)
	}
	return &p, nil
}

// upsertPerson keeps seq on conflict so storage order survives updates.
func upsertPerson(ctx context.Context, tx *sql.Tx, p *models.Person) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO persons (account_id, email_key, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (account_id, email_key) DO UPDATE SET
			doc = excluded.doc,
			updated_at = excluded.updated_at
	`, p.AccountID, p.Key(), doc, p.CreatedAt, p.UpdatedAt)
	return err
}

func scanPersons(ctx context.Context, q queryer, query string, args ...any) ([]models.Person, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := []models.Person{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var p models.Person
		if err := decodeDoc(doc, &p); err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}
