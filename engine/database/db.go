package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/duospark/progression/engine/database/models"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Cheap reachability check with retries before the pool is built;
	// a dead database should fail fast at boot.
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{pool: pool, bunDB: newBunDB(pool)}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Close() {
	if db.bunDB != nil {
		db.bunDB.Close()
	}
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitializeSchema creates the engine's tables and indexes.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Quest)(nil),
		(*models.Skill)(nil),
		(*models.Landmark)(nil),
		(*models.Badge)(nil),
		(*models.Reward)(nil),
		(*models.UserQuestProgress)(nil),
		(*models.UserSkillProgress)(nil),
		(*models.UserLandmarkState)(nil),
		(*models.UserBadgeState)(nil),
		(*models.UserRewardRedemption)(nil),
		(*models.PairStreak)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// The unique indexes on the per-user state tables are load-bearing:
	// they back the get-or-create upserts and serialize concurrent
	// redemptions.
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_uqp_user_quest ON user_quest_progress(user_id, quest_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_usp_user_skill ON user_skill_progress(user_id, skill_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_uls_user_landmark ON user_landmark_state(user_id, landmark_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ubs_user_badge ON user_badge_state(user_id, badge_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_urr_user_reward ON user_reward_redemptions(user_id, reward_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_ps_pair ON pair_streaks(user_low_id, user_high_id);",
		"CREATE INDEX IF NOT EXISTS idx_uqp_user_completed ON user_quest_progress(user_id) WHERE completed;",
		"CREATE INDEX IF NOT EXISTS idx_usp_user_completed ON user_skill_progress(user_id) WHERE completed;",
		"CREATE INDEX IF NOT EXISTS idx_uls_user_completed ON user_landmark_state(user_id) WHERE completed;",
		"CREATE INDEX IF NOT EXISTS idx_ubs_user_earned ON user_badge_state(user_id) WHERE earned;",
		"CREATE INDEX IF NOT EXISTS idx_urr_user ON user_reward_redemptions(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_users_total_points ON users(total_points DESC);",
		"CREATE INDEX IF NOT EXISTS idx_rewards_active ON rewards(cost) WHERE is_active;",
	}

	for _, idx := range indexes {
		if _, err := db.bunDB.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.Int("tables", len(tables)),
		slog.Int("indexes", len(indexes)))
	return nil
}
