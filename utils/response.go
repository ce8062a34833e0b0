package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PaginationData is attached to every listing response.
type PaginationData struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalFiles  int64 `json:"totalFiles"`
	Limit       int   `json:"limit"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// Success writes a 200 response with success=true merged into the payload,
// so callers get flat bodies like {"success":true,"files":[...]}.
func Success(c *gin.Context, data gin.H) {
	body := gin.H{"success": true}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func SuccessWithMessage(c *gin.Context, message string, data gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

func ErrorWithData(c *gin.Context, code int, message string, data gin.H) {
	body := gin.H{"success": false, "error": message}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(code, body)
}
