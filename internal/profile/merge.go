package profile

import "strings"

// Merge folds update into a copy of base. A field is overwritten only when
// the update carries a non-blank value, so known data is never cleared.
// Merging the same update twice gives the same result as merging it once.
func Merge(base, update Profile) Profile {
	merged := base
	for _, f := range Fields {
		if v := strings.TrimSpace(update.Get(f)); v != "" {
			merged.Set(f, v)
		}
	}
	return merged
}
