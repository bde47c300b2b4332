package imagestore

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied file name to a safe base name:
// directory parts are dropped, whitespace becomes "_" and anything outside
// [A-Za-z0-9_.-] is removed. Returns "" when nothing usable is left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, "._")
}

// storedName prefixes the sanitized name with a random id so uploads with the
// same client name never overwrite each other.
func storedName(filename string) string {
	clean := SanitizeFilename(filename)
	if clean == "" {
		clean = "image"
	}
	return uuid.NewString() + "_" + clean
}

// validStoredName rejects names that could escape the store.
func validStoredName(name string) bool {
	return name != "" && SanitizeFilename(name) == name
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
