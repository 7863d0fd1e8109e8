// ABOUTME: Account operations of the directory service
package directory

import (
	"context"
	"strings"

	"github.com/harperreed/orgmap/models"
	"github.com/sirupsen/logrus"
)

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// SaveAccount validates and stores an account. A missing ID is assigned by the store.
func (s *Service) SaveAccount(ctx context.Context, account *models.Account) error {
	account.Name = strings.TrimSpace(account.Name)
	if err := s.checkStruct(account); err != nil {
		return err
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"account_id": account.ID, "name": account.Name}).Info("account saved")
	return nil
}
