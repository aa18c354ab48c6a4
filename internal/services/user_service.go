package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clauselens/internal/core"
)

// AccountService handles whole-account operations that span the history
// store and the identity record.
type AccountService struct {
	db      core.DbClient
	history *HistoryService
	log     *zap.SugaredLogger
}

func NewAccountService(db core.DbClient, history *HistoryService, log *zap.SugaredLogger) *AccountService {
	return &AccountService{db: db, history: history, log: log}
}

// Delete removes the user's history first, then the identity itself.
// Failure between the two steps can leave orphaned records; there is no
// rollback, the caller tells the user to sign in again and retry.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	if err := s.history.Purge(ctx, userID); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Infow("account deleted", "user", userID)
	return nil
}
