// ABOUTME: Account persistence for the SQLite store
// ABOUTME: Accounts are stored as JSON documents ordered by name
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/orgmap/models"
)

func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var a models.Account
		if err := decodeDoc(doc, &a); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM accounts WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var a models.Account
	if err := decodeDoc(doc, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAccount inserts or replaces an account, assigning an ID when empty.
func (s *SQLiteStore) SaveAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := Now()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var created sql.NullTime
		err := tx.QueryRowContext(ctx, `SELECT created_at FROM accounts WHERE id = ?`, account.ID).Scan(&created)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if created.Valid {
			account.CreatedAt = created.Time
		} else if account.CreatedAt.IsZero() {
			account.CreatedAt = now
		}
		account.UpdatedAt = now

		doc, err := json.Marshal(account)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, doc, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				doc = excluded.doc,
				updated_at = excluded.updated_at
		`, account.ID, account.Name, doc, account.CreatedAt, account.UpdatedAt)
		return err
	})
}
