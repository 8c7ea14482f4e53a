package cards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhanceableFields(t *testing.T) {
	data, err := DecodeCardData("okrs", []byte(`{
		"objective": "`+strings.Repeat("x", 60)+`",
		"keyResults": ["one"],
		"owner": "me"
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"owner", "quarter"}, EnhanceableFields(data, 0))
	assert.Equal(t, []string{"owner", "quarter"}, EnhanceableFields(data, DefaultEnhanceThreshold))
	assert.Equal(t, []string{"quarter"}, EnhanceableFields(data, 2))
}

func TestEnhanceableFieldsOpenBlueprint(t *testing.T) {
	data, err := DecodeCardData("scratch", []byte(`{"b": "short", "a": "", "list": []}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, EnhanceableFields(data, 10))
}

func TestMergeEnhanced(t *testing.T) {
	data, err := DecodeCardData("okrs", []byte(`{"objective": "grow"}`))
	require.NoError(t, err)

	applied := MergeEnhanced(data, map[string]any{
		"objective":  "Grow revenue in EMEA",
		"keyResults": "- Win 10 accounts\n* Hire 2 AEs\n\n",
		"owner":      []any{"Sales", "Ops"},
		"quarter":    42,
		"unasked":    "ignored",
	}, []string{"objective", "keyResults", "owner", "quarter"})

	assert.Equal(t, []string{"objective", "keyResults", "owner"}, applied)
	assert.Equal(t, "Grow revenue in EMEA", data.Text["objective"])
	assert.Equal(t, []string{"Win 10 accounts", "Hire 2 AEs"}, data.Lists["keyResults"])
	assert.Equal(t, "Sales\nOps", data.Text["owner"])
	assert.NotContains(t, data.Map(), "unasked")
	assert.NotContains(t, data.Map(), "quarter")
}

func TestMergeEnhancedMixedArrayIgnored(t *testing.T) {
	data := NewCardData(Blueprint{Type: "scratch"})
	applied := MergeEnhanced(data, map[string]any{"x": []any{"a", 1}}, []string{"x"})
	assert.Empty(t, applied)
	assert.Empty(t, data.Map())
}
