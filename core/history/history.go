package history

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds configuration for the publish history log.
type Config struct {
	// Enabled toggles history recording.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Path is the sqlite database file. Relative paths resolve against
	// the working directory; inside the content repository the file
	// stays untracked, which the clean-worktree check permits.
	Path string `mapstructure:"path" default:".crosspost-history.db"`
}

// Entry is one completed (post, platform) pair. The history log is an
// audit trail only; reconciliation never reads it back.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index"`
	Post      string
	Platform  string
	Action    string
	PostID    string
	CreatedAt time.Time
}

// Log appends publish history entries to a local sqlite database.
type Log struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database and migrates
// the schema.
func Open(cfg Config) (*Log, error) {
	// Suppress GORM logging; the engine's zap logger is the single
	// output channel for a run.
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", cfg.Path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating history schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Record appends one entry.
func (l *Log) Record(runID, post, platform, action, postID string) error {
	e := Entry{
		RunID:    runID,
		Post:     post,
		Platform: platform,
		Action:   action,
		PostID:   postID,
	}
	if err := l.db.Create(&e).Error; err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// ForRun returns the entries of one run in insertion order.
func (l *Log) ForRun(runID string) ([]Entry, error) {
	var entries []Entry
	if err := l.db.Where("run_id = ?", runID).Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("loading history for run %s: %w", runID, err)
	}
	return entries, nil
}
