package storage

import (
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UniqueName returns "<unix millis>-<8 random hex>-<sanitized base name>".
func UniqueName(original string, now time.Time) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], SanitizeName(original))
}

// SanitizeName keeps the base name and extension of an upload with a conservative charset.
func SanitizeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	for strings.Contains(base, "..") {
		base = strings.ReplaceAll(base, "..", ".")
	}
	base = strings.Trim(base, ".-")
	if base == "" {
		return "file"
	}
	if len(base) > 100 {
		ext := filepath.Ext(base)
		if len(ext) > 10 {
			ext = ""
		}
		base = base[:100-len(ext)] + ext
	}
	return base
}

// ValidName rejects anything that could escape the sink's namespace.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return false
	}
	return true
}

// ContentTypeFor guesses from the extension, defaulting to octet-stream.
func ContentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
