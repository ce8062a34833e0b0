package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/logger"
	"github.com/hst-Sunday/tubed/models"
	"github.com/hst-Sunday/tubed/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListFilesInput struct {
	Page      int
	Limit     int
	Category  string
	SortBy    string
	SortOrder string
	Search    string
}

type FileListOutput struct {
	Files      []models.FileRecord
	Pagination PaginationOutput
	Stats      repositories.FileStats
}

type PaginationOutput struct {
	CurrentPage int
	TotalPages  int
	TotalFiles  int64
	Limit       int
}

type BatchDeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchDeleteOutput reports per-item outcomes. TotalSize is the sum of the
// succeeded records' metadata sizes, captured before deletion; it is a
// best-effort figure, not confirmed disk reclamation.
type BatchDeleteOutput struct {
	Successful []string             `json:"successful"`
	Failed     []BatchDeleteFailure `json:"failed"`
	TotalSize  int64                `json:"totalSize"`
}

type CleanupOutput struct {
	Deleted   []models.FileRecord
	Remaining int
}

type CheckFileOutput struct {
	URL    string `json:"url"`
	Exists bool   `json:"exists"`
}

type FileService interface {
	Upload(ctx context.Context, files []*multipart.FileHeader) ([]models.FileRecord, error)
	List(ctx context.Context, in ListFilesInput) FileListOutput
	Stats(ctx context.Context) repositories.FileStats
	Get(ctx context.Context, id string) (models.FileRecord, error)
	Delete(ctx context.Context, id string) (models.FileRecord, error)
	BatchDelete(ctx context.Context, ids []string) (BatchDeleteOutput, error)
	CleanupOrphans(ctx context.Context) (CleanupOutput, error)
	CheckFile(ctx context.Context, url string) (CheckFileOutput, error)
}

type fileService struct {
	txManager  TxManager
	files      repositories.FileRepository
	basePath   string
	pagination config.PaginationConfig
}

func NewFileService(txManager TxManager, files repositories.FileRepository, storage config.StorageConfig, pagination config.PaginationConfig) FileService {
	return &fileService{
		txManager:  txManager,
		files:      files,
		basePath:   storage.BasePath,
		pagination: pagination,
	}
}

// Upload validates the whole batch before any byte hits the disk, then
// persists file-by-file: disk write first, metadata row second. A row
// insert failure unlinks the just-written file and fails the request;
// files persisted earlier in the batch are kept.
func (s *fileService) Upload(ctx context.Context, files []*multipart.FileHeader) ([]models.FileRecord, error) {
	if len(files) == 0 {
		return nil, newAppError(http.StatusBadRequest, "no files uploaded", nil)
	}

	// Category is a pure function of the filename and the declared MIME
	// type, decided here once per file; the stored record and the size
	// check must agree on it. The substituted extension-based type fills
	// the record's Type only.
	pending := make([]pendingUpload, 0, len(files))
	for _, header := range files {
		category := Categorize(header.Filename, header.Header.Get("Content-Type"))
		cfg := CategoryConfigFor(category)
		if maxBytes := cfg.MaxSizeMB * 1024 * 1024; header.Size > maxBytes {
			return nil, newAppError(http.StatusBadRequest,
				fmt.Sprintf("file %s exceeds the %s size limit (max %dMB)", header.Filename, category, cfg.MaxSizeMB), nil)
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = getMimeType(filepath.Ext(header.Filename))
		}
		pending = append(pending, pendingUpload{header: header, mimeType: mimeType, category: category})
	}

	uploadsDir := filepath.Join(s.basePath, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, newAppError(http.StatusInternalServerError, "failed to create uploads directory", err)
	}

	uploaded := make([]models.FileRecord, 0, len(pending))
	for _, p := range pending {
		record, err := s.storeOne(ctx, uploadsDir, p)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, record)
	}
	return uploaded, nil
}

type pendingUpload struct {
	header   *multipart.FileHeader
	mimeType string
	category string
}

func (s *fileService) storeOne(ctx context.Context, uploadsDir string, p pendingUpload) (models.FileRecord, error) {
	src, err := p.header.Open()
	if err != nil {
		return models.FileRecord{}, newAppError(http.StatusBadRequest, "failed to read uploaded file", err)
	}
	defer src.Close()

	storageName := generateStorageName(p.header.Filename)
	absPath := filepath.Join(uploadsDir, storageName)

	dst, err := os.Create(absPath)
	if err != nil {
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to create file", err)
	}
	written, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		_ = os.Remove(absPath)
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to save file", err)
	}
	// A close failure means buffered bytes may not have reached the disk,
	// so the recorded size could lie. Treat it like a failed write.
	if err := dst.Close(); err != nil {
		_ = os.Remove(absPath)
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to save file", err)
	}

	record := models.FileRecord{
		ID:         uuid.New().String(),
		Name:       p.header.Filename,
		URL:        "/uploads/" + storageName,
		Size:       written,
		Type:       p.mimeType,
		Category:   p.category,
		UploadedAt: time.Now(),
	}

	if err := s.files.Create(ctx, nil, &record); err != nil {
		if rmErr := os.Remove(absPath); rmErr != nil {
			logger.Warnf("failed to remove file after insert failure: %s: %v", absPath, rmErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.FileRecord{}, newAppError(http.StatusInternalServerError, "duplicate file record", err)
		}
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to save file metadata", err)
	}
	return record, nil
}

// generateStorageName builds `<sanitized base>_<unix millis>_<random hex><ext>`.
// The timestamp plus 8 random bytes make collisions practically impossible,
// so there is no retry loop.
func generateStorageName(originalName string) string {
	ext := filepath.Ext(originalName)
	base := sanitizeFilename(strings.TrimSuffix(filepath.Base(originalName), ext))

	suffix := make([]byte, 8)
	_, _ = rand.Read(suffix)

	return fmt.Sprintf("%s_%d_%s%s", base, time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)
}

// List is a display path: repository failures degrade to an empty listing
// instead of propagating.
func (s *fileService) List(ctx context.Context, in ListFilesInput) FileListOutput {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > s.pagination.MaxPageSize {
		in.Limit = s.pagination.DefaultPageSize
	}

	allowedSortFields := map[string]bool{"uploadedAt": true, "name": true, "size": true}
	if !allowedSortFields[in.SortBy] {
		in.SortBy = "uploadedAt"
	}
	if in.SortOrder != "asc" && in.SortOrder != "desc" {
		in.SortOrder = "desc"
	}

	offset := (in.Page - 1) * in.Limit

	var files []models.FileRecord
	var err error
	if in.Search != "" {
		files, err = s.files.Search(ctx, nil, in.Search, in.Category, offset, in.Limit)
	} else {
		files, err = s.files.List(ctx, nil, repositories.ListFilesInput{
			Category: in.Category,
			SortBy:   in.SortBy,
			Order:    in.SortOrder,
			Offset:   offset,
			Limit:    in.Limit,
		})
	}
	if err != nil {
		log.Printf("file listing failed: %v", err)
		files = nil
	}
	if files == nil {
		files = []models.FileRecord{}
	}

	stats := s.Stats(ctx)
	total := stats.TotalFiles
	if in.Category != "" {
		total = stats.Categories[in.Category]
	}
	totalPages := int(math.Ceil(float64(total) / float64(in.Limit)))

	return FileListOutput{
		Files: files,
		Pagination: PaginationOutput{
			CurrentPage: in.Page,
			TotalPages:  totalPages,
			TotalFiles:  total,
			Limit:       in.Limit,
		},
		Stats: stats,
	}
}

// Stats recomputes the full-table aggregate on every call; failures
// degrade to zeroed stats.
func (s *fileService) Stats(ctx context.Context) repositories.FileStats {
	stats, err := s.files.Stats(ctx, nil)
	if err != nil {
		log.Printf("file stats failed: %v", err)
		return repositories.FileStats{Categories: map[string]int64{}}
	}
	if stats.Categories == nil {
		stats.Categories = map[string]int64{}
	}
	return stats
}

func (s *fileService) Get(ctx context.Context, id string) (models.FileRecord, error) {
	file, err := s.files.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.FileRecord{}, newAppError(http.StatusNotFound, "file not found", nil)
		}
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to query file", err)
	}
	return file, nil
}

// Delete removes the row first; the row deletion is authoritative, so a
// failed file unlink afterwards is logged and not surfaced.
func (s *fileService) Delete(ctx context.Context, id string) (models.FileRecord, error) {
	file, err := s.Get(ctx, id)
	if err != nil {
		return models.FileRecord{}, err
	}

	removed, err := s.files.DeleteByID(ctx, nil, id)
	if err != nil {
		return models.FileRecord{}, newAppError(http.StatusInternalServerError, "failed to delete file from database", err)
	}
	if !removed {
		return models.FileRecord{}, newAppError(http.StatusNotFound, "file not found", nil)
	}

	s.removeBackingFile(file)
	return file, nil
}

// BatchDelete processes each id independently and never fails outright once
// the input validates.
func (s *fileService) BatchDelete(ctx context.Context, ids []string) (BatchDeleteOutput, error) {
	if len(ids) == 0 {
		return BatchDeleteOutput{}, newAppError(http.StatusBadRequest, "invalid file IDs provided", nil)
	}

	out := BatchDeleteOutput{
		Successful: []string{},
		Failed:     []BatchDeleteFailure{},
	}
	for _, id := range ids {
		file, err := s.files.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out.Failed = append(out.Failed, BatchDeleteFailure{ID: id, Error: "file not found"})
			} else {
				out.Failed = append(out.Failed, BatchDeleteFailure{ID: id, Error: "failed to query file"})
			}
			continue
		}

		removed, err := s.files.DeleteByID(ctx, nil, id)
		if err != nil || !removed {
			out.Failed = append(out.Failed, BatchDeleteFailure{ID: id, Error: "failed to delete from database"})
			continue
		}

		s.removeBackingFile(file)
		out.Successful = append(out.Successful, id)
		out.TotalSize += file.Size
	}
	return out, nil
}

// CleanupOrphans deletes rows whose backing file is gone. It is a one-way
// repair invoked explicitly; files without rows are left alone.
func (s *fileService) CleanupOrphans(ctx context.Context) (CleanupOutput, error) {
	all, err := s.files.ListAll(ctx, nil)
	if err != nil {
		return CleanupOutput{}, newAppError(http.StatusInternalServerError, "failed to scan file records", err)
	}

	var orphaned []models.FileRecord
	for _, file := range all {
		if _, err := os.Stat(s.absPath(file.URL)); os.IsNotExist(err) {
			orphaned = append(orphaned, file)
		}
	}

	if len(orphaned) > 0 {
		err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			for _, file := range orphaned {
				if _, err := s.files.DeleteByID(ctx, tx, file.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return CleanupOutput{}, newAppError(http.StatusInternalServerError, "failed to delete orphaned records", err)
		}
	}

	return CleanupOutput{Deleted: orphaned, Remaining: len(all) - len(orphaned)}, nil
}

func (s *fileService) CheckFile(ctx context.Context, url string) (CheckFileOutput, error) {
	if url == "" {
		return CheckFileOutput{}, newAppError(http.StatusBadRequest, "no file URL provided", nil)
	}

	absPath, err := resolveUnderRoot(s.basePath, url)
	if err != nil {
		return CheckFileOutput{}, newAppError(http.StatusForbidden, "invalid file path", err)
	}

	_, statErr := os.Stat(absPath)
	return CheckFileOutput{URL: url, Exists: statErr == nil}, nil
}

func (s *fileService) absPath(url string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(url, "/")))
}

func (s *fileService) removeBackingFile(file models.FileRecord) {
	absPath, err := resolveUnderRoot(s.basePath, file.URL)
	if err != nil {
		logger.Warnf("refusing to delete file outside storage root: %s", file.URL)
		return
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		logger.Warnf("failed to delete physical file for %s: %v", file.ID, err)
	}
}
