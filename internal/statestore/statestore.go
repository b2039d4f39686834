// Package statestore persists pipeline session state in a relational
// database, replacing an earlier per-entity-repository pair (repositories
// over a gorm.DB opened once at startup) with a single gorm-backed Store
// scoped to the one entity this domain needs tracked across runs: the
// Session.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Session is the gorm-mapped row a Store persists. Mirrors
// models.Context's lifecycle fields; Metadata is stored as a JSON blob
// since its shape is caller-defined.
type Session struct {
	ID          models.ULID `gorm:"primarykey;type:varchar(26)"`
	Status      string
	StartedAt   time.Time
	EndedAt     *time.Time
	MetadataRaw []byte `gorm:"column:metadata"`
}

func (Session) TableName() string { return "sessions" }

// ErrSessionNotFound is returned by GetSession when no row matches the
// given ID. Wraps gorm.ErrRecordNotFound so callers can also match on that.
var ErrSessionNotFound = errors.New("statestore: session not found")

// Config selects the backing driver and connection string. Driver is
// one of "sqlite" (default), "mysql", "postgres", matching
// internal/config.DatabaseConfig.Driver.
type Config struct {
	Driver string
	DSN    string
}

// Store implements models.SessionState against a gorm.DB, plus the
// create/find-resumable operations the CLI needs around a run.
// Grounded on an earlier repository pattern (db *gorm.DB field,
// constructor, wrapped errors) applied to a single entity instead of a
// whole repository-per-model layer.
type Store struct {
	db *gorm.DB
}

// Open opens a Store against cfg, auto-migrating the Session table.
func Open(cfg Config) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("statestore: opening %s database: %w", cfg.Driver, err)
	}
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("statestore: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqlite.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("statestore: unsupported driver %q", cfg.Driver)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("statestore: obtaining sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// CreateSession inserts a new Session row in SessionPending status.
func (s *Store) CreateSession(ctx context.Context, sessionID models.ULID) error {
	row := Session{ID: sessionID, Status: string(models.SessionPending), StartedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("statestore: creating session %s: %w", sessionID, err)
	}
	return nil
}

// UpdateStatus implements models.SessionState.
func (s *Store) UpdateStatus(sessionID models.ULID, status models.SessionStatus, endTime *time.Time) error {
	updates := map[string]any{"status": string(status)}
	if endTime != nil {
		updates["ended_at"] = *endTime
	}
	res := s.db.Model(&Session{}).Where("id = ?", sessionID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("statestore: updating session %s status: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("statestore: session %s not found", sessionID)
	}
	return nil
}

// SetMetadata implements models.SessionState by merging key into the
// session's stored metadata JSON blob.
func (s *Store) SetMetadata(sessionID models.ULID, key string, value any) error {
	var row Session
	if err := s.db.Where("id = ?", sessionID).First(&row).Error; err != nil {
		return fmt.Errorf("statestore: loading session %s: %w", sessionID, err)
	}

	meta, err := decodeMetadata(row.MetadataRaw)
	if err != nil {
		return fmt.Errorf("statestore: decoding session %s metadata: %w", sessionID, err)
	}
	meta[key] = value

	encoded, err := encodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("statestore: encoding session %s metadata: %w", sessionID, err)
	}

	if err := s.db.Model(&Session{}).Where("id = ?", sessionID).Update("metadata", encoded).Error; err != nil {
		return fmt.Errorf("statestore: saving session %s metadata: %w", sessionID, err)
	}
	return nil
}

// GetSession returns a single session row by ID, for the run-status
// lookups an operator-facing status endpoint needs.
func (s *Store) GetSession(ctx context.Context, sessionID models.ULID) (Session, error) {
	var row Session
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, fmt.Errorf("%w: %s: %w", ErrSessionNotFound, sessionID, err)
	}
	if err != nil {
		return Session{}, fmt.Errorf("statestore: loading session %s: %w", sessionID, err)
	}
	return row, nil
}

// FindResumable returns every session left in SessionRunning status,
// oldest first — candidates for an interrupted-run resume flow.
func (s *Store) FindResumable(ctx context.Context) ([]Session, error) {
	var rows []Session
	err := s.db.WithContext(ctx).
		Where("status = ?", string(models.SessionRunning)).
		Order("started_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("statestore: finding resumable sessions: %w", err)
	}
	return rows, nil
}
