package repositories

import (
	"context"

	"github.com/hst-Sunday/tubed/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ListFilesInput selects a page of the files table. SortBy/Order must be
// pre-validated by the caller; Category empty means no filter.
type ListFilesInput struct {
	Category string
	SortBy   string
	Order    string
	Offset   int
	Limit    int
}

// FileStats is a full-table aggregate, recomputed on every call.
type FileStats struct {
	TotalFiles int64            `json:"totalFiles"`
	TotalSize  int64            `json:"totalSize"`
	Categories map[string]int64 `json:"categories"`
}

type FileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, file *models.FileRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (models.FileRecord, error)
	GetByURL(ctx context.Context, tx *gorm.DB, url string) (models.FileRecord, error)
	List(ctx context.Context, tx *gorm.DB, in ListFilesInput) ([]models.FileRecord, error)
	// Search matches query as a substring of name, case-insensitively
	// (SQLite LIKE semantics for ASCII), newest uploads first.
	Search(ctx context.Context, tx *gorm.DB, query string, category string, offset int, limit int) ([]models.FileRecord, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]models.FileRecord, error)
	// DeleteByID reports whether a row was actually removed; deleting a
	// missing id is not an error.
	DeleteByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	Stats(ctx context.Context, tx *gorm.DB) (FileStats, error)
}

type Container struct {
	TxManager TxManager
	Files     FileRepository
}
