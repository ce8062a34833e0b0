package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hst-Sunday/tubed/services"
	"github.com/hst-Sunday/tubed/utils"

	"github.com/gin-gonic/gin"
)

// UploadFiles accepts one or more multipart parts under the "files" field.
func UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to parse upload form")
		return
	}

	uploaded, err := getServices().File.Upload(c.Request.Context(), form.File["files"])
	if respondServiceError(c, err) {
		return
	}

	utils.SuccessWithMessage(c,
		fmt.Sprintf("Successfully uploaded %d file(s)", len(uploaded)),
		gin.H{"files": uploaded})
}

func ListFiles(c *gin.Context) {
	svc := getServices().File

	if c.Query("stats") == "true" {
		utils.Success(c, gin.H{"stats": svc.Stats(c.Request.Context())})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	out := svc.List(c.Request.Context(), services.ListFilesInput{
		Page:      page,
		Limit:     limit,
		Category:  c.Query("category"),
		SortBy:    c.DefaultQuery("sortBy", "uploadedAt"),
		SortOrder: c.DefaultQuery("sortOrder", "desc"),
		Search:    c.Query("search"),
	})

	utils.Success(c, gin.H{
		"files": out.Files,
		"pagination": utils.PaginationData{
			CurrentPage: out.Pagination.CurrentPage,
			TotalPages:  out.Pagination.TotalPages,
			TotalFiles:  out.Pagination.TotalFiles,
			Limit:       out.Pagination.Limit,
			HasNext:     out.Pagination.CurrentPage < out.Pagination.TotalPages,
			HasPrev:     out.Pagination.CurrentPage > 1,
		},
		"stats": out.Stats,
	})
}

func GetFile(c *gin.Context) {
	file, err := getServices().File.Get(c.Request.Context(), c.Param("id"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"file": file})
}

func DeleteFile(c *gin.Context) {
	file, err := getServices().File.Delete(c.Request.Context(), c.Param("id"))
	if respondServiceError(c, err) {
		return
	}
	utils.SuccessWithMessage(c, fmt.Sprintf("File %s deleted successfully", file.Name), gin.H{})
}

type BatchDeleteRequest struct {
	FileIDs []string `json:"fileIds"`
}

func BatchDeleteFiles(c *gin.Context) {
	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid file IDs provided")
		return
	}

	results, err := getServices().File.BatchDelete(c.Request.Context(), req.FileIDs)
	if respondServiceError(c, err) {
		return
	}

	utils.SuccessWithMessage(c,
		fmt.Sprintf("Successfully deleted %d files", len(results.Successful)),
		gin.H{"results": results})
}

func CleanupFiles(c *gin.Context) {
	out, err := getServices().File.CleanupOrphans(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}

	deleted := make([]gin.H, 0, len(out.Deleted))
	for _, f := range out.Deleted {
		deleted = append(deleted, gin.H{"id": f.ID, "name": f.Name, "url": f.URL})
	}

	utils.SuccessWithMessage(c,
		fmt.Sprintf("Cleanup finished, removed %d orphaned record(s)", len(out.Deleted)),
		gin.H{"deletedFiles": deleted, "remainingCount": out.Remaining})
}

func CheckFile(c *gin.Context) {
	out, err := getServices().File.CheckFile(c.Request.Context(), c.Query("url"))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"url": out.URL, "exists": out.Exists})
}
