package sanitizer

// Normalize applies normalize to every item and keeps the first occurrence of each result.
// Zero values are dropped. The result is never nil.
func Normalize[T comparable](items []T, normalize func(T) T) []T {
	var zero T
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		v := normalize(item)
		if v == zero {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	return Normalize(items, normalizer)
}

// NormalizeEmails lowercases and dedupes guest addresses.
func NormalizeEmails(emails []string) []string {
	return Normalize(emails, NormalizeEmail)
}
