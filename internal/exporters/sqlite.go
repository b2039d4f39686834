package exporters

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jmylchreest/mediapull/internal/models"
	"github.com/jmylchreest/mediapull/pkg/bytesize"
)

// postRow is the gorm-mapped table row an export writes; a minimal
// projection of models.PostRecord's exported columns, not the full
// record (galleries/polls/awards export through json.go instead).
type postRow struct {
	ID           string `gorm:"primarykey"`
	Title        string
	Author       string
	Subreddit    string
	Permalink    string
	URL          string
	PostType     string
	Score        int
	CommentCount int
	IsNSFW       bool
	CreatedAtISO string
}

func (postRow) TableName() string { return "posts" }

// SQLiteExporter writes posts into a SQLite database via gorm,
// upserting by post id so repeated runs against the same destination
// accumulate rather than duplicate. Grounded on this module's own
// gorm+glebarez/sqlite wiring used for its primary datastore, reused
// here for an export sink instead.
type SQLiteExporter struct{}

func (e *SQLiteExporter) Info() FormatInfo {
	return FormatInfo{Name: "sqlite", Extension: ".db", SupportsIncremental: true}
}

func (e *SQLiteExporter) ValidateConfig(cfg Config) []error {
	if cfg.Destination == "" {
		return []error{fmt.Errorf("sqlite exporter: destination is required")}
	}
	return nil
}

func (e *SQLiteExporter) EstimateOutputSize(posts []*models.PostRecord, cfg Config) bytesize.Size {
	const avgRowBytes = 300
	return bytesize.Size(len(posts)*avgRowBytes + 4096)
}

func (e *SQLiteExporter) Export(ctx context.Context, posts []*models.PostRecord, cfg Config) (*Result, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Destination), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite exporter: opening %s: %w", cfg.Destination, err)
	}
	sqlDB, sqlErr := db.DB()
	if sqlErr == nil {
		defer sqlDB.Close()
	}

	if err := db.WithContext(ctx).AutoMigrate(&postRow{}); err != nil {
		return nil, fmt.Errorf("sqlite exporter: migrating schema: %w", err)
	}

	rows := make([]postRow, len(posts))
	for i, post := range posts {
		rows[i] = postRow{
			ID: post.ID, Title: post.Title, Author: post.Author,
			Subreddit: post.Subreddit, Permalink: post.Permalink, URL: post.URL,
			PostType: string(post.Type), Score: post.Score,
			CommentCount: post.CommentCount, IsNSFW: post.IsNSFW,
			CreatedAtISO: post.CreatedAtISO,
		}
	}

	if len(rows) > 0 {
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("sqlite exporter: upserting rows: %w", err)
		}
	}

	return &Result{FilesWritten: []string{cfg.Destination}, RecordCount: len(posts)}, nil
}
