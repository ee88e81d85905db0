package content

import "github.com/goliatone/go-slug"

// NormalizeSlug applies the default go-slug normalisation rules.
func NormalizeSlug(value string) (string, error) {
	return slug.Normalize(value)
}

// IsValidSlug reports whether value is already a normalised slug.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}
