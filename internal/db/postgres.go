package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	// LOCAL_SQLITE_PATH short-circuits to an embedded database for
	// development without a postgres instance. Ids come from the model
	// hooks, so the schema carries no postgres-only defaults.
	if path := strings.TrimSpace(envutil.Str("LOCAL_SQLITE_PATH", "")); path != "" {
		serviceLog.Info("Opening local sqlite database", "path", path)
		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &PostgresService{db: db, log: serviceLog}, nil
	}

	host := envutil.Str("POSTGRES_HOST", "localhost")
	port := envutil.Str("POSTGRES_PORT", "5432")
	user := envutil.Str("POSTGRES_USER", "postgres")
	password := envutil.Str("POSTGRES_PASSWORD", "")
	name := envutil.Str("POSTGRES_NAME", "mio")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Protocol{},
		&types.ProtocolTask{},
		&types.Program{},
		&types.ProgramPhase{},
		&types.Lesson{},
		&types.Tactic{},
		&types.Assignment{},
		&types.TacticProgress{},
		&types.CompletionRecord{},
		&types.LifecycleEvent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index creation failed", "error", err)
		return err
	}
	return nil
}

// EnsureIndexes creates the constraints AutoMigrate cannot express. The
// partial unique index is what actually holds the one-active-assignment-
// per-slot rule; the application-level check only exists for a friendly
// error on the common path.
func EnsureIndexes(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_assignment_user_slot_open
		ON assignment (user_id, slot)
		WHERE status IN ('active', 'paused') AND deleted_at IS NULL`).Error
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
