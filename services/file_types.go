package services

import (
	"path/filepath"
	"strings"
)

const (
	CategoryImage       = "image"
	CategoryDocument    = "document"
	CategoryPDF         = "pdf"
	CategorySpreadsheet = "spreadsheet"
	CategoryVideo       = "video"
	CategoryAudio       = "audio"
	CategoryArchive     = "archive"
	CategoryCode        = "code"
	CategoryOther       = "other"
)

// CategoryConfig classifies uploads and carries the per-category size
// ceiling. A file belongs to the first entry whose extension list or MIME
// list matches; adding a category is a data change.
type CategoryConfig struct {
	Category   string
	Extensions []string
	MimeTypes  []string
	MaxSizeMB  int64
}

var categoryConfigs = []CategoryConfig{
	{
		Category:   CategoryImage,
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp", ".ico"},
		MimeTypes:  []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml", "image/bmp", "image/x-icon"},
		MaxSizeMB:  10,
	},
	{
		Category:   CategoryDocument,
		Extensions: []string{".doc", ".docx", ".txt", ".rtf", ".odt"},
		MimeTypes:  []string{"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "text/plain", "text/rtf", "application/vnd.oasis.opendocument.text"},
		MaxSizeMB:  50,
	},
	{
		Category:   CategoryPDF,
		Extensions: []string{".pdf"},
		MimeTypes:  []string{"application/pdf"},
		MaxSizeMB:  50,
	},
	{
		Category:   CategorySpreadsheet,
		Extensions: []string{".xls", ".xlsx", ".csv", ".ods"},
		MimeTypes:  []string{"application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv", "application/vnd.oasis.opendocument.spreadsheet"},
		MaxSizeMB:  50,
	},
	{
		Category:   CategoryVideo,
		Extensions: []string{".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv"},
		MimeTypes:  []string{"video/mp4", "video/avi", "video/quicktime", "video/x-ms-wmv", "video/x-flv", "video/webm", "video/x-matroska"},
		MaxSizeMB:  500,
	},
	{
		Category:   CategoryAudio,
		Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma"},
		MimeTypes:  []string{"audio/mpeg", "audio/wav", "audio/flac", "audio/aac", "audio/ogg", "audio/x-ms-wma"},
		MaxSizeMB:  100,
	},
	{
		Category:   CategoryArchive,
		Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2"},
		MimeTypes:  []string{"application/zip", "application/x-rar-compressed", "application/x-7z-compressed", "application/x-tar", "application/gzip", "application/x-bzip2"},
		MaxSizeMB:  200,
	},
	{
		Category:   CategoryCode,
		Extensions: []string{".js", ".ts", ".jsx", ".tsx", ".html", ".css", ".json", ".xml", ".py", ".java", ".cpp", ".c", ".php"},
		MimeTypes:  []string{"text/javascript", "text/typescript", "text/html", "text/css", "application/json", "application/xml", "text/x-python", "text/x-java-source", "text/x-c", "application/x-php"},
		MaxSizeMB:  10,
	},
}

// otherConfig caps files that match no category; they are allowed but
// still size-limited.
var otherConfig = CategoryConfig{Category: CategoryOther, MaxSizeMB: 100}

// Categorize is a pure function of (filename, declared MIME type). A file
// matches a category on extension, exact MIME type, or MIME family (the
// part before the slash) of any configured MIME type.
func Categorize(fileName string, mimeType string) string {
	name := strings.ToLower(fileName)
	mime := strings.ToLower(mimeType)

	for _, cfg := range categoryConfigs {
		for _, ext := range cfg.Extensions {
			if strings.HasSuffix(name, ext) {
				return cfg.Category
			}
		}
		for _, m := range cfg.MimeTypes {
			if mime == m || strings.HasPrefix(mime, mimeFamily(m)+"/") {
				return cfg.Category
			}
		}
	}
	return CategoryOther
}

func CategoryConfigFor(category string) CategoryConfig {
	for _, cfg := range categoryConfigs {
		if cfg.Category == category {
			return cfg
		}
	}
	return otherConfig
}

func mimeFamily(mime string) string {
	if idx := strings.Index(mime, "/"); idx > 0 {
		return mime[:idx]
	}
	return mime
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("..", "_", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(name)
}

var extMimeTypes = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".webp": "image/webp", ".svg": "image/svg+xml",
	".bmp": "image/bmp", ".ico": "image/x-icon", ".pdf": "application/pdf",
	".mp4": "video/mp4", ".avi": "video/x-msvideo", ".mov": "video/quicktime",
	".wmv": "video/x-ms-wmv", ".flv": "video/x-flv", ".webm": "video/webm",
	".mkv": "video/x-matroska", ".mp3": "audio/mpeg", ".wav": "audio/wav",
	".flac": "audio/flac", ".aac": "audio/aac", ".ogg": "audio/ogg",
	".wma": "audio/x-ms-wma", ".zip": "application/zip",
	".rar": "application/x-rar-compressed", ".7z": "application/x-7z-compressed",
	".tar": "application/x-tar", ".gz": "application/gzip", ".bz2": "application/x-bzip2",
	".txt": "text/plain", ".doc": "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv", ".json": "application/json", ".js": "text/javascript",
	".ts": "text/typescript", ".html": "text/html", ".css": "text/css",
	".py": "text/x-python", ".java": "text/x-java-source",
	".cpp": "text/x-c++src", ".c": "text/x-csrc", ".php": "text/x-php",
}

func getMimeType(ext string) string {
	if mt, ok := extMimeTypes[strings.ToLower(ext)]; ok {
		return mt
	}
	return "application/octet-stream"
}
