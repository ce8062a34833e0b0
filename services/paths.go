package services

import (
	"errors"
	"path/filepath"
	"strings"
)

var errPathEscapes = errors.New("path escapes storage root")

// resolveUnderRoot joins rel onto root and verifies the cleaned result
// still lies inside root. Defends against `../` traversal in served paths.
func resolveUnderRoot(root string, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(absRoot, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
	absPath, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", errPathEscapes
	}
	return absPath, nil
}
