// Package store persists the gobang entities and enforces the rules the
// schema cannot express on its own: foreign key existence, a single default
// model per user, exactly-once game finalization and forward-only rooms.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/icco/gobang"
	"github.com/ifo/sanic"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// DefaultMaxAttempts caps optimistic retries of one operation.
const DefaultMaxAttempts = 3

// Config tunes a Store.
type Config struct {
	// MaxAttempts is how often a transaction is run before giving up with a
	// ConflictError.
	MaxAttempts int
	// BoardSize is used for rooms opened without a size.
	BoardSize int
	// SlowThreshold marks queries logged as slow.
	SlowThreshold time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BoardSize == 0 {
		c.BoardSize = gobang.DefaultBoardSize
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = 200 * time.Millisecond
	}
	return c
}

// Store is the repository for every gobang entity. It is safe for concurrent
// use.
type Store struct {
	db    *gorm.DB
	cfg   Config
	log   *zap.SugaredLogger
	codes *sanic.Worker
	now   func() time.Time
}

// Open connects to the database named by dsn and migrates the schema.
// postgres:// and postgresql:// URLs use postgres, anything else is taken as
// a sqlite file (":memory:" included).
func Open(dsn string, cfg Config, log *zap.SugaredLogger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	gl := zapgorm2.New(log.Desugar())
	gl.SlowThreshold = cfg.SlowThreshold
	gl.IgnoreRecordNotFoundError = true
	gl.SetAsDefault()

	gormCfg := &gorm.Config{
		Logger:         gl.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	isPostgres := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if isPostgres {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(sqliteDSN(dsn))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !isPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db, cfg, log)
}

// sqliteDSN turns on foreign key enforcement for every connection the driver
// opens. sqlite is kept to a single connection so writers serialize and an
// in-memory database is shared.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// New wraps an open gorm connection and migrates the schema.
func New(db *gorm.DB, cfg Config, log *zap.SugaredLogger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Store{
		db:    db,
		cfg:   cfg.withDefaults(),
		log:   log,
		codes: sanic.NewWorker8(),
		now:   time.Now,
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return s, nil
}

// AutoMigrate runs the database migrations. Users come first since every
// other table references them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&gobang.User{},
		&gobang.Model{},
		&gobang.TrainingData{},
		&gobang.Game{},
		&gobang.Room{},
	)
}

// DB exposes the connection for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// errRetry marks a lost compare-and-swap. The transaction is rolled back and
// run again.
var errRetry = errors.New("store: concurrent modification")

// tx runs fn in a single transaction. Any error rolls everything back.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// retry runs fn in a transaction until it commits, fails for a reason other
// than a lost race, or MaxAttempts is used up.
func (s *Store) retry(ctx context.Context, op, entity string, id int64, fn func(tx *gorm.DB) error) error {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.tx(ctx, fn)
		if err == nil || !(errors.Is(err, errRetry) || transient(err)) {
			return err
		}

		storeRetries.WithLabelValues(op).Inc()
		s.log.Debugw("retrying after concurrent modification", "op", op, "entity", entity, "id", id, "attempt", attempt, zap.Error(err))

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return &gobang.ConflictError{Entity: entity, ID: id, Attempts: s.cfg.MaxAttempts}
}

// forUpdate adds a row lock where the dialect supports one. sqlite already
// serializes writers.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// swap writes updates to the row with the given primary key only if its
// version is unchanged, and bumps the version.
func swap(tx *gorm.DB, model interface{}, pk string, id, version int64, updates map[string]interface{}) error {
	updates["version"] = version + 1

	res := tx.Model(model).Where(pk+" = ? AND version = ?", id, version).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errRetry
	}
	return nil
}

func limit(q *gorm.DB, n int) *gorm.DB {
	if n > 0 {
		return q.Limit(n)
	}
	return q
}
