package cards

import (
	"errors"
	"sort"
	"strings"
)

var ErrEmptyTag = errors.New("tag cannot be empty")

// AddTag appends tag after trimming it. A tag already present is left where it
// is and reported as not added. The input slice is never written to.
func AddTag(tags []string, tag string) ([]string, bool, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags, false, ErrEmptyTag
	}
	for _, t := range tags {
		if t == tag {
			return tags, false, nil
		}
	}
	return append(tags[:len(tags):len(tags)], tag), true, nil
}

// RemoveTag drops tag (compared after trimming) and reports whether it was present.
func RemoveTag(tags []string, tag string) ([]string, bool) {
	tag = strings.TrimSpace(tag)
	out := tags[:0:0]
	removed := false
	for _, t := range tags {
		if t == tag {
			removed = true
			continue
		}
		out = append(out, t)
	}
	return out, removed
}

// NormalizeTags trims every tag, drops empties and duplicates, and keeps the
// first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out, _, _ = AddTag(out, t)
	}
	return out
}

// Suggest returns tags from universe that start with prefix (case-insensitive)
// and are not in current. Results are ordered by how many times they occur in
// universe, then alphabetically. limit <= 0 means no limit.
func Suggest(universe, current []string, prefix string, limit int) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	have := make(map[string]struct{}, len(current))
	for _, t := range current {
		have[t] = struct{}{}
	}

	counts := map[string]int{}
	for _, t := range universe {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := have[t]; ok {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(t), prefix) {
			continue
		}
		counts[t]++
	}

	out := make([]string, 0, len(counts))
	for t := range counts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
