package emote

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultCDNURL is the base URL emote images are served from.
const DefaultCDNURL = "https://static-cdn.jtvnw.net/emoticons/v2"

// FileExt is the suffix of every cached blob.
const FileExt = ".png"

var literalCode = regexp.MustCompile(`^[a-zA-Z0-9]*$`)

// IsPatternCode reports whether a catalog code must be treated as a regular
// expression rather than a literal token.
func IsPatternCode(code string) bool {
	return !literalCode.MatchString(code)
}

// SyntheticKey is the key used for records whose code is a pattern.
func SyntheticKey(id int, variant string) string {
	return fmt.Sprintf("emote_%d%s", id, variant)
}

// DeriveKey returns the lookup key for a code/variant pair.
// Literal codes keep their text; pattern codes get a synthetic key so the
// key stays safe for file names and for literal lookup.
func DeriveKey(id int, code, variant string) string {
	if IsPatternCode(code) {
		return SyntheticKey(id, variant)
	}
	return code + variant
}

// RemoteURL returns the CDN location of an emote rendition.
func RemoteURL(cdn string, id int, variant string) string {
	if cdn == "" {
		cdn = DefaultCDNURL
	}
	return fmt.Sprintf("%s/%d%s/default/dark/3.0", strings.TrimRight(cdn, "/"), id, variant)
}

// invalidFileChars is the union of characters rejected in file names by the
// platforms the cache is expected to live on.
const invalidFileChars = `<>:"/\|?*`

func isInvalidFileRune(r rune) bool {
	return r < 0x20 || r == 0x7f || strings.ContainsRune(invalidFileChars, r)
}

// SanitizeFilename collapses runs of invalid file name characters into a
// single "_" and strips trailing dots. It returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	parts := strings.FieldsFunc(name, isInvalidFileRune)
	return strings.TrimRight(strings.Join(parts, "_"), ".")
}

// RelativePath is the cache-root-relative location of a record's blob:
// <channel>/<key>.png with both segments sanitized.
func RelativePath(channel, key string, id int, variant string) string {
	dir := SanitizeFilename(channel)
	if dir == "" {
		dir = "_"
	}
	file := SanitizeFilename(key)
	if file == "" {
		file = SyntheticKey(id, variant)
	}
	return filepath.Join(dir, file+FileExt)
}
