package services

import (
	"bytes"
	"image"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hst-Sunday/tubed/config"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// TransformOptions are the optional resize/format/quality parameters of
// the retrieval proxy. Zero values mean "use the configured default".
type TransformOptions struct {
	Format  string
	Quality int
	Width   int
	Height  int
	Fit     string
}

type ImageService interface {
	// Resolve joins relPath onto the uploads root and containment-checks
	// the result: escape is Forbidden, a missing file is NotFound.
	Resolve(relPath string) (string, error)
	Transform(absPath string, opts TransformOptions) ([]byte, string, error)
	ContentTypeFor(path string) string
}

type imageService struct {
	basePath string
	cfg      config.TransformConfig
}

func NewImageService(storage config.StorageConfig, cfg config.TransformConfig) ImageService {
	return &imageService{basePath: storage.BasePath, cfg: cfg}
}

func (s *imageService) Resolve(relPath string) (string, error) {
	uploadsDir := filepath.Join(s.basePath, "uploads")
	absPath, err := resolveUnderRoot(uploadsDir, relPath)
	if err != nil {
		return "", newAppError(http.StatusForbidden, "forbidden", err)
	}

	info, err := os.Stat(absPath)
	if err != nil || info.IsDir() {
		return "", newAppError(http.StatusNotFound, "not found", nil)
	}
	return absPath, nil
}

// Transform decodes the source, resizes without ever upscaling beyond the
// original dimensions, and re-encodes to the requested format. Codec
// failures stay generic so internal paths never reach the caller.
func (s *imageService) Transform(absPath string, opts TransformOptions) ([]byte, string, error) {
	if err := s.normalize(&opts); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, "", newAppError(http.StatusInternalServerError, "failed to read image", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, "", newAppError(http.StatusInternalServerError, "failed to process image", err)
	}

	bounds := img.Bounds()
	width := min(opts.Width, bounds.Dx())
	height := min(opts.Height, bounds.Dy())

	switch {
	case width > 0 && height > 0:
		switch opts.Fit {
		case "contain":
			img = imaging.Fit(img, width, height, imaging.Lanczos)
		case "fill":
			img = imaging.Resize(img, width, height, imaging.Lanczos)
		default: // cover
			img = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
		}
	case width > 0:
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	case height > 0:
		img = imaging.Resize(img, 0, height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	switch opts.Format {
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(opts.Quality)})
	case "jpeg", "jpg":
		opts.Format = "jpeg"
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, "", newAppError(http.StatusInternalServerError, "failed to encode image", err)
	}

	return buf.Bytes(), "image/" + opts.Format, nil
}

func (s *imageService) normalize(opts *TransformOptions) error {
	if opts.Format == "" {
		opts.Format = s.cfg.DefaultFormat
	}
	switch opts.Format {
	case "webp", "jpeg", "jpg", "png":
	default:
		return newAppError(http.StatusBadRequest, "unsupported output format", nil)
	}

	if opts.Quality == 0 {
		opts.Quality = s.cfg.DefaultQuality
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return newAppError(http.StatusBadRequest, "quality must be between 1 and 100", nil)
	}

	for _, dim := range []int{opts.Width, opts.Height} {
		if dim < 0 || dim > s.cfg.MaxDimension {
			return newAppError(http.StatusBadRequest, "dimensions must be between 1 and 4096", nil)
		}
	}

	if opts.Fit == "" {
		opts.Fit = s.cfg.DefaultFit
	}
	switch opts.Fit {
	case "cover", "contain", "fill":
	default:
		return newAppError(http.StatusBadRequest, "unsupported fit strategy", nil)
	}
	return nil
}

func (s *imageService) ContentTypeFor(path string) string {
	return getMimeType(filepath.Ext(path))
}

// decodeImage handles the formats imaging knows plus WebP sources.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if webpImg, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return webpImg, nil
	}
	return nil, err
}
