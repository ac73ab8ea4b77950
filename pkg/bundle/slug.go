package bundle

import "strings"

// Slugify normalizes a human-readable name into an identifier-safe slug:
// lower-cased, runs of non-alphanumeric characters collapsed to a single
// hyphen, leading and trailing hyphens trimmed. Returns "" when nothing
// usable remains.
func Slugify(name string) string {
	var b strings.Builder

	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')

				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// jobKey derives the resources.jobs entry name from a workflow name,
// underscore-separated as the workspace emits job keys.
func jobKey(name string) string {
	key := strings.ReplaceAll(Slugify(name), "-", "_")
	if key == "" {
		key = "unnamed_job"
	}

	return key
}
