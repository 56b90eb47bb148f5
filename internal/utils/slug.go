// internal/utils/slug.go
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)
)

// Slugify turns an arbitrary name into a lowercase url-safe slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugWithSuffix appends a short random suffix, used to resolve slug
// collisions without another round-trip.
func SlugWithSuffix(name string) string {
	b := make([]byte, 3)
	rand.Read(b)
	return Slugify(name) + "-" + hex.EncodeToString(b)
}
