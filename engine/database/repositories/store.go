package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
	"github.com/duospark/progression/engine/progression"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Postgres error codes this store classifies.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// EngineStore is the bun-backed implementation of progression.Store.
// Outside a transaction db is the root *bun.DB; inside RunInTx the
// callback receives a copy whose db is the bun.Tx, so every method
// works in both scopes.
type EngineStore struct {
	root *bun.DB
	db   bun.IDB
}

var _ progression.Store = (*EngineStore)(nil)

func NewEngineStore(db *bun.DB) *EngineStore {
	return &EngineStore{root: db, db: db}
}

func (s *EngineStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx progression.Store) error) error {
	if _, ok := s.db.(bun.Tx); ok {
		// Already transactional; reuse the open transaction.
		return fn(ctx, s)
	}
	err := s.root.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, &EngineStore{root: s.root, db: tx})
		})
	if err != nil && isRetryableConflict(err) {
		return fmt.Errorf("%v: %w", err, progression.ErrConcurrencyConflict)
	}
	return err
}

// isRetryableConflict matches serialization failures and deadlocks,
// which roll the transaction back but are safe to retry.
func isRetryableConflict(err error) bool {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	code := pgErr.Field('C')
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

func (s *EngineStore) IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	return false
}

func (s *EngineStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, progression.ErrNotFound)
		}
		slog.Error("Database error when getting user",
			slog.String("type", "db"),
			slog.Int64("user_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return user, nil
}

func (s *EngineStore) GetUserForUpdate(ctx context.Context, id int64) (*models.User, error) {
	user := new(models.User)
	err := s.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, progression.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *EngineStore) UpdateUserPoints(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	_, err := s.db.NewUpdate().
		Model(u).
		Column("total_points", "available_points", "current_tier", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (s *EngineStore) CountRedemptions(ctx context.Context, userID int64) (int, error) {
	return s.db.NewSelect().
		Model((*models.UserRewardRedemption)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}
