package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failingMarshaler struct{}

func (failingMarshaler) MarshalJSON() ([]byte, error) { return nil, errors.New("boom") }

func TestPayloadComparer(t *testing.T) {
	pc := NewPayloadComparer(nil)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", map[string]any{"note": "x"}, nil, false},
		{"same map", map[string]any{"note": "x"}, map[string]any{"note": "x"}, true},
		{"key order irrelevant", map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}, true},
		{"different value", map[string]any{"note": "x"}, map[string]any{"note": "y"}, false},
		{"string payload", "bookmark-1", "bookmark-1", true},
		{"unserializable", failingMarshaler{}, failingMarshaler{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pc.Equal(tt.a, tt.b))
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("inst_01HZY3", "instance_id", true))
	assert.NoError(t, ValidateID("theme-editor", "app_id", true))
	assert.Error(t, ValidateID("", "instance_id", true))
	assert.Error(t, ValidateID("../etc", "instance_id", true))
	assert.Error(t, ValidateID(strings.Repeat("a", MaxIDLength+1), "instance_id", true))
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath(""))
	assert.NoError(t, ValidatePath("/bookmarks/42"))
	assert.Error(t, ValidatePath("bookmarks"))
}

func TestValidatePayload(t *testing.T) {
	assert.NoError(t, ValidatePayload(nil))
	assert.NoError(t, ValidatePayload(map[string]any{"note": "x"}))
	assert.Error(t, ValidatePayload(strings.Repeat("x", MaxPayloadSize+1)))

	var deep any = "leaf"
	for i := 0; i < MaxPayloadDepth+2; i++ {
		deep = map[string]any{"n": deep}
	}
	assert.Error(t, ValidatePayload(deep))
}

func TestValidateGeometry(t *testing.T) {
	w, neg := 800, -1
	assert.NoError(t, ValidateGeometry(nil, nil, &w, nil))
	assert.Error(t, ValidateGeometry(nil, nil, &neg, nil))
	assert.NoError(t, ValidateGeometry(&neg, &neg, nil, nil))
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "Reading list", SanitizeTitle("  <b>Reading</b> list "))
	assert.Equal(t, "Notes & Todo", SanitizeTitle("Notes & Todo"))
	assert.Equal(t, "", SanitizeTitle("<script>alert(1)</script>"))
	assert.Len(t, []rune(SanitizeTitle(strings.Repeat("é", MaxTitleLength+10))), MaxTitleLength)
}
