package repositories

import (
	"context"
	"strings"

	"github.com/hst-Sunday/tubed/models"

	"gorm.io/gorm"
)

type GormFileRepository struct {
	db *gorm.DB
}

func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(_ context.Context, tx *gorm.DB, file *models.FileRecord) error {
	return useTx(r.db, tx).Create(file).Error
}

func (r *GormFileRepository) GetByID(_ context.Context, tx *gorm.DB, id string) (models.FileRecord, error) {
	var file models.FileRecord
	err := useTx(r.db, tx).Where("id = ?", id).First(&file).Error
	return file, err
}

func (r *GormFileRepository) GetByURL(_ context.Context, tx *gorm.DB, url string) (models.FileRecord, error) {
	var file models.FileRecord
	err := useTx(r.db, tx).Where("url = ?", url).First(&file).Error
	return file, err
}

var sortColumns = map[string]string{
	"uploadedAt": "uploaded_at",
	"name":       "name",
	"size":       "size",
}

func (r *GormFileRepository) List(_ context.Context, tx *gorm.DB, in ListFilesInput) ([]models.FileRecord, error) {
	query := useTx(r.db, tx).Model(&models.FileRecord{})
	if in.Category != "" {
		query = query.Where("category = ?", in.Category)
	}

	sortCol := sortColumns[in.SortBy]
	if sortCol == "" {
		sortCol = "uploaded_at"
	}
	order := strings.ToUpper(in.Order)
	if order != "ASC" {
		order = "DESC"
	}

	var files []models.FileRecord
	err := query.Order(sortCol + " " + order).Offset(in.Offset).Limit(in.Limit).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) Search(_ context.Context, tx *gorm.DB, query string, category string, offset int, limit int) ([]models.FileRecord, error) {
	db := useTx(r.db, tx).Model(&models.FileRecord{}).
		Where("name LIKE ? ESCAPE '\\'", "%"+escapeLike(query)+"%")
	if category != "" {
		db = db.Where("category = ?", category)
	}

	var files []models.FileRecord
	err := db.Order("uploaded_at DESC").Offset(offset).Limit(limit).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) ListAll(_ context.Context, tx *gorm.DB) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := useTx(r.db, tx).Find(&files).Error
	return files, err
}

func (r *GormFileRepository) DeleteByID(_ context.Context, tx *gorm.DB, id string) (bool, error) {
	result := useTx(r.db, tx).Where("id = ?", id).Delete(&models.FileRecord{})
	return result.RowsAffected > 0, result.Error
}

func (r *GormFileRepository) Stats(_ context.Context, tx *gorm.DB) (FileStats, error) {
	db := useTx(r.db, tx)

	var totals struct {
		Count int64
		Size  int64
	}
	err := db.Model(&models.FileRecord{}).
		Select("COUNT(*) AS count, COALESCE(SUM(size), 0) AS size").
		Scan(&totals).Error
	if err != nil {
		return FileStats{}, err
	}

	var rows []struct {
		Category string
		Count    int64
	}
	err = db.Model(&models.FileRecord{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return FileStats{}, err
	}

	categories := make(map[string]int64, len(rows))
	for _, row := range rows {
		categories[row.Category] = row.Count
	}

	return FileStats{TotalFiles: totals.Count, TotalSize: totals.Size, Categories: categories}, nil
}

// User-supplied search text must not act as LIKE syntax.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
