package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hst-Sunday/tubed/services"
	"github.com/hst-Sunday/tubed/utils"

	"github.com/gin-gonic/gin"
)

// ServeImage is the retrieval and transformation proxy. Without transform
// parameters it streams the stored bytes unchanged; with any parameter
// present it decodes, resizes, and re-encodes. Either way the storage name
// already encodes uniqueness, so responses are immutable-cacheable.
func ServeImage(c *gin.Context) {
	svc := getServices().Image

	absPath, err := svc.Resolve(c.Param("path"))
	if respondServiceError(c, err) {
		return
	}

	opts, hasTransform, err := parseTransformOptions(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !hasTransform {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Header("Content-Type", svc.ContentTypeFor(absPath))
		c.File(absPath)
		return
	}

	data, contentType, err := svc.Transform(absPath, opts)
	if respondServiceError(c, err) {
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

// ServeUpload streams stored bytes without transformation.
func ServeUpload(c *gin.Context) {
	svc := getServices().Image

	absPath, err := svc.Resolve(c.Param("path"))
	if respondServiceError(c, err) {
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Header("Content-Type", svc.ContentTypeFor(absPath))
	c.File(absPath)
}

func parseTransformOptions(c *gin.Context) (services.TransformOptions, bool, error) {
	present := false
	for _, key := range []string{"format", "quality", "width", "w", "height", "h", "fit"} {
		if c.Query(key) != "" {
			present = true
			break
		}
	}

	opts := services.TransformOptions{
		Format: c.Query("format"),
		Fit:    c.Query("fit"),
	}

	var err error
	if opts.Quality, err = intQuery(c, "quality"); err != nil {
		return opts, present, err
	}
	if opts.Width, err = intQuery(c, "width", "w"); err != nil {
		return opts, present, err
	}
	if opts.Height, err = intQuery(c, "height", "h"); err != nil {
		return opts, present, err
	}
	return opts, present, nil
}

// intQuery reads the first present parameter among names. Present means the
// caller asked for it, so anything but a positive integer is an error
// rather than a silent fallback to the default.
func intQuery(c *gin.Context, names ...string) (int, error) {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return 0, fmt.Errorf("invalid %s parameter", name)
			}
			return n, nil
		}
	}
	return 0, nil
}
