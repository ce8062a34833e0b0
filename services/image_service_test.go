package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hst-Sunday/tubed/config"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

func newTestImageService(t *testing.T) (ImageService, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "uploads"), 0o755); err != nil {
		t.Fatalf("mkdir uploads: %v", err)
	}
	svc := NewImageService(config.StorageConfig{BasePath: dir}, config.TransformConfig{
		MaxDimension:   4096,
		DefaultQuality: 80,
		DefaultFormat:  "webp",
		DefaultFit:     "cover",
	})
	return svc, dir
}

// writeTestPNG writes a width x height PNG under uploads and returns its name.
func writeTestPNG(t *testing.T, dir string, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, "uploads", name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return name
}

func TestResolveRejectsTraversal(t *testing.T) {
	svc, _ := newTestImageService(t)

	for _, rel := range []string{"../secret.png", "a/../../secret.png", "/../secret.png"} {
		_, err := svc.Resolve(rel)
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.HTTPCode != 403 {
			t.Errorf("Resolve(%q): expected 403, got %v", rel, err)
		}
	}
}

func TestResolveMissingAndDirectory(t *testing.T) {
	svc, dir := newTestImageService(t)

	_, err := svc.Resolve("nope.png")
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.HTTPCode != 404 {
		t.Fatalf("expected 404 for missing file, got %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "uploads", "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err = svc.Resolve("sub")
	if !errors.As(err, &appErr) || appErr.HTTPCode != 404 {
		t.Fatalf("expected 404 for directory, got %v", err)
	}
}

func TestResolveReturnsExistingFile(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "ok.png", 4, 4)

	absPath, err := svc.Resolve(name)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if filepath.Base(absPath) != name {
		t.Fatalf("unexpected resolved path: %q", absPath)
	}
}

func TestTransformCoverCropsToExactSize(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "wide.png", 40, 20)
	absPath, _ := svc.Resolve(name)

	data, contentType, err := svc.Transform(absPath, TransformOptions{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if contentType != "image/webp" {
		t.Fatalf("expected configured default format webp, got %q", contentType)
	}

	out, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("cover must produce the exact requested size, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestTransformContainPreservesAspectRatio(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "wide.png", 40, 20)
	absPath, _ := svc.Resolve(name)

	data, _, err := svc.Transform(absPath, TransformOptions{Width: 10, Height: 10, Fit: "contain", Format: "png"})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	out, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("contain must fit inside the box, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestTransformNeverUpscales(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "small.png", 16, 12)
	absPath, _ := svc.Resolve(name)

	data, _, err := svc.Transform(absPath, TransformOptions{Width: 4000, Format: "png"})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	out, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
		t.Fatalf("requested size beyond the source must keep original dimensions, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestTransformJpgAliasesToJpeg(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "alias.png", 8, 8)
	absPath, _ := svc.Resolve(name)

	_, contentType, err := svc.Transform(absPath, TransformOptions{Format: "jpg"})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Fatalf("jpg must serve as image/jpeg, got %q", contentType)
	}
}

func TestTransformRejectsBadParameters(t *testing.T) {
	svc, dir := newTestImageService(t)
	name := writeTestPNG(t, dir, "params.png", 8, 8)
	absPath, _ := svc.Resolve(name)

	cases := []TransformOptions{
		{Format: "tiff"},
		{Quality: 101},
		{Quality: -5},
		{Width: 5000},
		{Height: -1},
		{Fit: "stretch"},
	}
	for _, opts := range cases {
		_, _, err := svc.Transform(absPath, opts)
		var appErr *AppError
		if !errors.As(err, &appErr) || appErr.HTTPCode != 400 {
			t.Errorf("Transform(%+v): expected 400, got %v", opts, err)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	svc, _ := newTestImageService(t)

	if got := svc.ContentTypeFor("a/b/photo.WEBP"); got != "image/webp" {
		t.Fatalf("expected image/webp, got %q", got)
	}
	if got := svc.ContentTypeFor("mystery"); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream fallback, got %q", got)
	}
}
