package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
	"github.com/uptrace/bun"
)

// UserRepository covers reads outside the engine's transactional core:
// signup seeding and leaderboard queries.
type UserRepository interface {
	EnsureUser(ctx context.Context, username string) (*models.User, error)
	GetTopUsers(ctx context.Context, limit int) ([]*models.User, error)
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

// EnsureUser creates the users row at signup if it does not exist and
// returns it either way. Progress rows stay lazy; they are created on
// first interaction.
func (r *userRepository) EnsureUser(ctx context.Context, username string) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		Username:    username,
		CurrentTier: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.db.NewInsert().
		Model(user).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	err = r.db.NewSelect().
		Model(user).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		slog.Error("Failed to load user after ensure",
			slog.String("type", "db"),
			slog.String("username", username),
			slog.String("error", err.Error()))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetTopUsers(ctx context.Context, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.NewSelect().
		Model(&users).
		Order("total_points DESC", "id ASC").
		Limit(limit).
		Scan(ctx)
	return users, err
}
