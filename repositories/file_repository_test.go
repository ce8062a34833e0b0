package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hst-Sunday/tubed/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	// :memory: is per-connection; a second pooled connection would see an
	// empty schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.FileRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, repo *GormFileRepository, i int, name, category string, size int64, at time.Time) models.FileRecord {
	t.Helper()
	rec := models.FileRecord{
		ID:         fmt.Sprintf("id-%03d", i),
		Name:       name,
		URL:        fmt.Sprintf("/uploads/%03d-%s", i, name),
		Size:       size,
		Type:       "application/octet-stream",
		Category:   category,
		UploadedAt: at,
	}
	if err := repo.Create(context.Background(), nil, &rec); err != nil {
		t.Fatalf("seed %s: %v", rec.ID, err)
	}
	return rec
}

func TestCreateAndGet(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	rec := seedRecord(t, repo, 1, "cat.png", "image", 2048, time.Now())

	byID, err := repo.GetByID(ctx, nil, rec.ID)
	if err != nil || byID.Name != "cat.png" {
		t.Fatalf("GetByID: %+v, %v", byID, err)
	}
	byURL, err := repo.GetByURL(ctx, nil, rec.URL)
	if err != nil || byURL.ID != rec.ID {
		t.Fatalf("GetByURL: %+v, %v", byURL, err)
	}

	_, err = repo.GetByID(ctx, nil, "missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestCreateDuplicateURL(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	first := seedRecord(t, repo, 1, "a.png", "image", 1, time.Now())

	dup := models.FileRecord{
		ID:         "id-other",
		Name:       "b.png",
		URL:        first.URL,
		Category:   "image",
		UploadedAt: time.Now(),
	}
	err := repo.Create(ctx, nil, &dup)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey for url collision, got %v", err)
	}
}

func TestListPaginationIsCompleteAndOrdered(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		seedRecord(t, repo, i, fmt.Sprintf("f%d.png", i), "image", int64(i), base.Add(time.Duration(i)*time.Minute))
	}

	seen := map[string]bool{}
	var prev time.Time
	for offset := 0; ; offset += 3 {
		page, err := repo.List(ctx, nil, ListFilesInput{SortBy: "uploadedAt", Order: "desc", Offset: offset, Limit: 3})
		if err != nil {
			t.Fatalf("list offset %d: %v", offset, err)
		}
		if len(page) == 0 {
			break
		}
		for _, rec := range page {
			if seen[rec.ID] {
				t.Fatalf("record %s appeared on two pages", rec.ID)
			}
			seen[rec.ID] = true
			if !prev.IsZero() && rec.UploadedAt.After(prev) {
				t.Fatalf("descending order violated at %s", rec.ID)
			}
			prev = rec.UploadedAt
		}
	}
	if len(seen) != 7 {
		t.Fatalf("pagination lost records: saw %d of 7", len(seen))
	}
}

func TestListFiltersByCategoryAndSortsBySize(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Now()
	seedRecord(t, repo, 1, "big.mp4", "video", 900, now)
	seedRecord(t, repo, 2, "small.png", "image", 10, now)
	seedRecord(t, repo, 3, "mid.png", "image", 500, now)

	files, err := repo.List(ctx, nil, ListFilesInput{Category: "image", SortBy: "size", Order: "asc", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].Name != "small.png" || files[1].Name != "mid.png" {
		t.Fatalf("unexpected filtered listing: %+v", files)
	}
}

func TestListFallsBackToUploadedAtForUnknownSort(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedRecord(t, repo, 1, "old.png", "image", 1, base)
	seedRecord(t, repo, 2, "new.png", "image", 1, base.Add(time.Hour))

	files, err := repo.List(ctx, nil, ListFilesInput{SortBy: "drop table", Order: "nope", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].Name != "new.png" {
		t.Fatalf("expected newest-first fallback ordering, got %+v", files)
	}
}

func TestSearchMatchesSubstringAndEscapesWildcards(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Now()
	seedRecord(t, repo, 1, "holiday-photo.png", "image", 1, now)
	seedRecord(t, repo, 2, "HOLIDAY-list.txt", "document", 1, now)
	seedRecord(t, repo, 3, "receipt_100%.pdf", "pdf", 1, now)

	files, err := repo.Search(ctx, nil, "holiday", "", 0, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected case-insensitive substring match on 2 records, got %d", len(files))
	}

	files, err = repo.Search(ctx, nil, "holiday", "image", 0, 10)
	if err != nil || len(files) != 1 || files[0].Name != "holiday-photo.png" {
		t.Fatalf("category-scoped search failed: %+v, %v", files, err)
	}

	// % in the query is a literal, not a wildcard.
	files, err = repo.Search(ctx, nil, "100%", "", 0, 10)
	if err != nil || len(files) != 1 || files[0].Name != "receipt_100%.pdf" {
		t.Fatalf("escaped wildcard search failed: %+v, %v", files, err)
	}
	files, err = repo.Search(ctx, nil, "%", "", 0, 10)
	if err != nil || len(files) != 1 {
		t.Fatalf("bare %% must only match literal %%, got %d records", len(files))
	}
}

func TestDeleteByIDReportsWhetherRowExisted(t *testing.T) {
	repo := NewGormFileRepository(newTestDB(t))
	ctx := context.Background()

	rec := seedRecord(t, repo, 1, "gone.png", "image", 1, time.Now())

	removed, err := repo.DeleteByID(ctx, nil, rec.ID)
	if err != nil || !removed {
		t.Fatalf("first delete: removed=%v err=%v", removed, err)
	}
	removed, err = repo.DeleteByID(ctx, nil, rec.ID)
	if err != nil || removed {
		t.Fatalf("second delete must report no row, removed=%v err=%v", removed, err)
	}
}

func TestStatsAggregates(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFileRepository(db)
	ctx := context.Background()

	stats, err := repo.Stats(ctx, nil)
	if err != nil || stats.TotalFiles != 0 || stats.TotalSize != 0 {
		t.Fatalf("empty table stats: %+v, %v", stats, err)
	}

	now := time.Now()
	seedRecord(t, repo, 1, "a.png", "image", 100, now)
	seedRecord(t, repo, 2, "b.png", "image", 200, now)
	seedRecord(t, repo, 3, "c.pdf", "pdf", 50, now)

	stats, err = repo.Stats(ctx, nil)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalFiles != 3 || stats.TotalSize != 350 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.Categories["image"] != 2 || stats.Categories["pdf"] != 1 {
		t.Fatalf("unexpected category breakdown: %+v", stats.Categories)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormFileRepository(db)
	txm := NewGormTxManager(db)
	ctx := context.Background()

	rec := seedRecord(t, repo, 1, "keep.png", "image", 1, time.Now())

	boom := errors.New("boom")
	err := txm.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := repo.DeleteByID(ctx, tx, rec.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	if _, err := repo.GetByID(ctx, nil, rec.ID); err != nil {
		t.Fatalf("row must survive a rolled-back transaction: %v", err)
	}
}
