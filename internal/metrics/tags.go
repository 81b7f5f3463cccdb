package metrics

import "strings"

// Tag creates a tag string in DataDog "key:value" format.
func Tag(key, value string) string {
	return key + ":" + value
}

func BackendTag(backend string) string {
	return Tag("backend", backend)
}

func CommandTag(command string) string {
	return Tag("command", strings.ToLower(command))
}

func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}

// SplitTag is the inverse of Tag. A tag without a colon has an empty value.
func SplitTag(tag string) (key, value string) {
	key, value, _ = strings.Cut(tag, ":")
	return key, value
}

// MergeTags returns base followed by extra without mutating base.
func MergeTags(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	if len(base) == 0 {
		return extra
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
