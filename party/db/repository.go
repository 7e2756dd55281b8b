package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/liuran001/WatchParty-Go/party"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a feedback entry does not exist.
var ErrNotFound = errors.New("record not found")

var errNotConfigured = errors.New("repository not configured")

// Repository provides access to the settings and feedback database.
type Repository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a repository backed by SQLite.
func NewSQLiteRepository(dsn string, gormLogger logger.Interface) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn required")
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dbDir := filepath.Dir(dsn)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := applySQLitePragmas(db); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SettingModel{}, &FeedbackModel{}); err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Repository{db: db}, nil
}

// ConfigurePool updates the database connection pool settings.
func (r *Repository) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if maxOpen >= 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime >= 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

// GetSetting returns a stored setting and whether it exists.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	if r == nil || r.db == nil {
		return "", false, errNotConfigured
	}
	var setting SettingModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// PutSetting inserts or replaces a setting.
func (r *Repository) PutSetting(ctx context.Context, key, value string) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&SettingModel{Key: key, Value: value}).Error
}

// DeleteSetting removes a setting. Deleting a missing key is not an error.
func (r *Repository) DeleteSetting(ctx context.Context, key string) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&SettingModel{}).Error
}

// CreateFeedback stores a new feedback entry.
func (r *Repository) CreateFeedback(ctx context.Context, entry *party.FeedbackEntry) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	if entry == nil || entry.ID == "" {
		return errors.New("feedback id required")
	}
	model := fromInternal(entry)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	entry.Status = party.FeedbackStatus(model.Status)
	entry.CreatedAt = model.CreatedAt
	entry.UpdatedAt = model.UpdatedAt
	return nil
}

// MarkFeedback records the delivery outcome of an entry.
func (r *Repository) MarkFeedback(ctx context.Context, id string, status party.FeedbackStatus, errMsg string) error {
	if r == nil || r.db == nil {
		return errNotConfigured
	}
	res := r.db.WithContext(ctx).Model(&FeedbackModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"error":      errMsg,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("feedback %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetFeedback loads a feedback entry by id.
func (r *Repository) GetFeedback(ctx context.Context, id string) (*party.FeedbackEntry, error) {
	if r == nil || r.db == nil {
		return nil, errNotConfigured
	}
	var model FeedbackModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("feedback %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toInternal(model), nil
}

// CountFeedback counts entries with the given status; an empty status counts all.
func (r *Repository) CountFeedback(ctx context.Context, status party.FeedbackStatus) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errNotConfigured
	}
	query := r.db.WithContext(ctx).Model(&FeedbackModel{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func applySQLitePragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, stmt := range pragmas {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
