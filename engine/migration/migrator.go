package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/duospark/progression/engine/database/models"
	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Migrator ports users from the legacy MongoDB store, which tracked a
// single "points" balance, into the dual-balance Postgres schema. It
// is idempotent per user: rows that already exist are left alone.
type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	usersColl string
	batchSize int
}

func NewMigrator(pgDB *bun.DB, client *mongo.Client, dbName string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoDB:   client.Database(dbName),
		usersColl: "users",
		batchSize: 500,
	}
}

// MigrationStats summarizes one run.
type MigrationStats struct {
	UsersSeen     int
	UsersInserted int
	UsersSkipped  int
	Elapsed       time.Duration
}

// MigrateUsers streams the legacy users collection into Postgres.
func (m *Migrator) MigrateUsers(ctx context.Context) (*MigrationStats, error) {
	start := time.Now()
	stats := &MigrationStats{}

	cursor, err := m.mongoDB.Collection(m.usersColl).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy users: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.User, 0, m.batchSize)
	for cursor.Next(ctx) {
		var legacy LegacyUser
		if err := cursor.Decode(&legacy); err != nil {
			slog.Warn("Skipping undecodable legacy user",
				slog.String("error", err.Error()))
			stats.UsersSkipped++
			continue
		}
		stats.UsersSeen++

		batch = append(batch, ConvertLegacyUser(legacy))
		if len(batch) >= m.batchSize {
			inserted, err := m.insertUsers(ctx, batch)
			if err != nil {
				return nil, err
			}
			stats.UsersInserted += inserted
			batch = batch[:0]
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("legacy user cursor failed: %w", err)
	}

	if len(batch) > 0 {
		inserted, err := m.insertUsers(ctx, batch)
		if err != nil {
			return nil, err
		}
		stats.UsersInserted += inserted
	}

	stats.Elapsed = time.Since(start)
	slog.Info("Legacy user migration finished",
		slog.Int("seen", stats.UsersSeen),
		slog.Int("inserted", stats.UsersInserted),
		slog.Int("skipped", stats.UsersSkipped),
		slog.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

func (m *Migrator) insertUsers(ctx context.Context, users []*models.User) (int, error) {
	res, err := m.pgDB.NewInsert().
		Model(&users).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert migrated users: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
