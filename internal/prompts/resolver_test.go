package prompts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f fakeSettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func TestResolver_Template(t *testing.T) {
	embedded, err := Get(ContentFile, "content_writer")
	require.NoError(t, err)

	tests := []struct {
		name     string
		settings SettingsStore
		want     string
	}{
		{name: "no settings store", settings: nil, want: embedded},
		{name: "override wins", settings: fakeSettings{values: map[string]string{"prompt.content_writer": "custom {{.Platform}}"}}, want: "custom {{.Platform}}"},
		{name: "blank override ignored", settings: fakeSettings{values: map[string]string{"prompt.content_writer": "  "}}, want: embedded},
		{name: "missing override", settings: fakeSettings{values: map[string]string{}}, want: embedded},
		{name: "store error falls back", settings: fakeSettings{err: errors.New("connection refused")}, want: embedded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.settings).Template(context.Background(), "content_writer")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Render(t *testing.T) {
	r := NewResolver(fakeSettings{values: map[string]string{"prompt.linkback": "See {{.CornerstoneTitle}}"}})

	got, err := r.Render(context.Background(), "linkback", map[string]string{"CornerstoneTitle": "the guide"})
	require.NoError(t, err)
	assert.Equal(t, "See the guide", got)

	_, err = r.Render(context.Background(), "does_not_exist", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load prompt does_not_exist")
}

func TestResolver_NilReceiver(t *testing.T) {
	var r *Resolver
	got, err := r.Template(context.Background(), "image")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}
