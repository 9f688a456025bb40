package util

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRun       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a title safe to use as a filename on common filesystems.
func SanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = whitespaceRun.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// TempBaseName derives a collision-resistant basename (no extension) for intermediate files.
// The name depends on both the URL and the operation kind, so concurrent operations on the
// same item never collide on disk.
func TempBaseName(url string, op string) string {
	return fmt.Sprintf("clip_%s_%x", op, sha1.Sum([]byte(url)))
}
