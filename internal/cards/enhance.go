package cards

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultEnhanceThreshold is the rune length under which a text field is
// considered thin enough to hand to the enhancer.
const DefaultEnhanceThreshold = 50

// EnhanceableFields returns the fields worth enhancing: declared text fields
// that are empty or shorter than threshold, and declared list fields that are
// empty. Open blueprints offer their existing short text fields instead.
func EnhanceableFields(data *CardData, threshold int) []string {
	if threshold <= 0 {
		threshold = DefaultEnhanceThreshold
	}
	thin := func(s string) bool {
		return utf8.RuneCountInString(strings.TrimSpace(s)) < threshold
	}

	var out []string
	if data.Blueprint.Open() {
		for name, value := range data.Text {
			if thin(value) {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out
	}

	for _, f := range data.Blueprint.Fields {
		switch f.Kind {
		case FieldText:
			if thin(data.Text[f.Name]) {
				out = append(out, f.Name)
			}
		case FieldList:
			if len(data.Lists[f.Name]) == 0 {
				out = append(out, f.Name)
			}
		}
	}
	return out
}

// MergeEnhanced copies enhanced values for the requested fields into data and
// returns the names that were applied. Strings and string arrays are accepted
// for any field and converted to the declared kind; every other value is
// ignored, as are fields that were not requested.
func MergeEnhanced(data *CardData, enhanced map[string]any, fields []string) []string {
	var applied []string
	for _, name := range fields {
		value, ok := enhanced[name]
		if !ok {
			continue
		}

		var (
			s      string
			l      []string
			isText bool
		)
		switch v := value.(type) {
		case string:
			s, isText = v, true
		case []string:
			l = v
		case []any:
			items, ok := stringItems(v)
			if !ok {
				continue
			}
			l = items
		default:
			continue
		}

		kind := FieldText
		if f, declared := data.Blueprint.Field(name); declared {
			kind = f.Kind
		} else if !isText {
			kind = FieldList
		}

		switch {
		case kind == FieldText && isText:
			data.SetText(name, s)
		case kind == FieldText:
			data.SetText(name, strings.Join(l, "\n"))
		case isText:
			data.SetList(name, splitLines(s))
		default:
			data.SetList(name, l)
		}
		applied = append(applied, name)
	}
	return applied
}

func stringItems(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
