package resolution

import (
	"net/url"
	"path"
	"strings"
)

// DefaultVariant is used for entries that do not name a variant.
const DefaultVariant = "normal"

// Resolve derives the ResourceKey of a font face. The key is built from the family, the
// variant and the extension of the locator, so it is deterministic for the same triple and
// only changes with the locator if the extension does.
func Resolve(family, variant, locator string) ResourceKey {
	return ResourceKey(family + "-" + NormalizeVariant(variant) + extension(locator))
}

// NormalizeVariant lower-cases variant and substitutes DefaultVariant for an empty one.
func NormalizeVariant(variant string) string {
	if variant == "" {
		return DefaultVariant
	}
	return strings.ToLower(variant)
}

// extension returns the file extension of the path addressed by locator including the
// leading dot, or an empty string if there is none.
func extension(locator string) string {
	if u, err := url.Parse(locator); err == nil {
		return path.Ext(u.Path)
	}
	if i := strings.IndexAny(locator, "?#"); i >= 0 {
		locator = locator[:i]
	}
	return path.Ext(locator)
}

// Valid reports whether the entry carries the fields required to take part in a batch.
// Invalid entries are filtered out before key resolution.
func (e Entry) Valid() bool {
	return e.Locator != "" && e.Family != ""
}

// normalize returns a copy of the entry with its variant normalized.
func (e Entry) normalize() Entry {
	e.Variant = NormalizeVariant(e.Variant)
	return e
}

// Sanitize drops invalid entries and normalizes the variant of the remaining ones.
// The order of entries is kept.
func Sanitize(entries []Entry) (valid []Entry, malformed int) {
	valid = make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Valid() {
			malformed++
			continue
		}
		valid = append(valid, e.normalize())
	}
	return valid, malformed
}
