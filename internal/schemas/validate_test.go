package schemas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DayBatchRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantField string
	}{
		{
			name:      "valid",
			body:      `{"week":1,"day":3,"items":[{"id":"a","platform":"blog","type":"cornerstone"},{"id":"b","platform":"twitter","type":"secondary","generate_image":true}]}`,
			wantValid: true,
		},
		{name: "missing items", body: `{"week":1,"day":3}`, wantField: "(root)|items"},
		{name: "empty items", body: `{"week":1,"day":3,"items":[]}`, wantField: "items"},
		{name: "bad type", body: `{"week":1,"day":3,"items":[{"id":"a","platform":"blog","type":"primary"}]}`, wantField: "items.0.type"},
		{name: "day out of range", body: `{"week":1,"day":8,"items":[{"id":"a","platform":"blog","type":"cornerstone"}]}`, wantField: "day"},
		{name: "week as string", body: `{"week":"1","day":1,"items":[{"id":"a","platform":"blog","type":"cornerstone"}]}`, wantField: "week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(DayBatchRequest, []byte(tt.body))
			if tt.wantValid {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, strings.Split(tt.wantField, "|"), ve.First().Field)
		})
	}
}

func TestValidate_GenerateRequest(t *testing.T) {
	assert.NoError(t, Validate(GenerateRequest, []byte(`{"platform":"linkedin","week":2,"day":1,"use_author_voice":true}`)))

	err := Validate(GenerateRequest, []byte(`{"week":2,"day":1}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "platform")
}

func TestValidate_ImageSize(t *testing.T) {
	assert.NoError(t, Validate(GenerateRequest, []byte(`{"platform":"blog","week":1,"day":1,"image_settings":{"size":"1792x1024"}}`)))

	err := Validate(GenerateRequest, []byte(`{"platform":"blog","week":1,"day":1,"image_settings":{"size":"huge"}}`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, []string{"image_settings.size", "size"}, ve.First().Field)

	err = Validate(DayBatchRequest, []byte(`{"week":1,"day":1,"image_settings":{"size":"10x10"},"items":[{"id":"a","platform":"blog","type":"cornerstone"}]}`))
	require.ErrorAs(t, err, &ve)
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate(GenerateRequest, []byte(`{not json`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
}

func TestValidationError_First(t *testing.T) {
	ve := &ValidationError{}
	assert.Equal(t, "(root)", ve.First().Field)
}
