package snsauth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasdesr/snsauth"
)

func TestDefaultSettings(t *testing.T) {
	s := snsauth.DefaultSettings()
	assert.True(t, s.AutoSubscribe)
	assert.True(t, s.AutoResubscribe)
	assert.True(t, s.UseCache)
	assert.Equal(t, 5000, s.MaxCerts)
	assert.NoError(t, s.Validate())
}

func TestDecodeSettings(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		want func(*snsauth.Settings)
	}{
		{"empty", ``, func(*snsauth.Settings) {}},
		{"empty mapping", `{}`, func(*snsauth.Settings) {}},
		{"yaml", "autoSubscribe: false\nmaxCerts: 10\n", func(s *snsauth.Settings) {
			s.AutoSubscribe = false
			s.MaxCerts = 10
		}},
		{"json", `{"autoResubscribe": false, "useCache": false}`, func(s *snsauth.Settings) {
			s.AutoResubscribe = false
			s.UseCache = false
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			want := snsauth.DefaultSettings()
			tc.want(&want)

			got, err := snsauth.DecodeSettings([]byte(tc.doc))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeSettingsInvalid(t *testing.T) {
	for _, tc := range []struct {
		doc     string
		message string
	}{
		{`{"badOption": true}`, `"badOption" is not allowed`},
		{`{"autoSubscribe": "yes please"}`, `"autoSubscribe" must be a boolean`},
		{`{"autoSubscribe": null}`, `"autoSubscribe" must be a boolean`},
		{`{"autoResubscribe": 1}`, `"autoResubscribe" must be a boolean`},
		{`{"useCache": [true]}`, `"useCache" must be a boolean`},
		{`{"maxCerts": "10"}`, `"maxCerts" must be an integer`},
		{`{"maxCerts": 1.5}`, `"maxCerts" must be an integer`},
		{`{"maxCerts": 0}`, `"maxCerts" must be greater than or equal to 1`},
		{`[true]`, `settings must be a mapping`},
		{`{`, ``},
	} {
		t.Run(tc.doc, func(t *testing.T) {
			_, err := snsauth.DecodeSettings([]byte(tc.doc))
			require.ErrorIs(t, err, snsauth.ErrInvalidSettings)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("useCache: false\n"), 0o600))

	s, err := snsauth.LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, s.UseCache)
	assert.True(t, s.AutoSubscribe)

	_, err = snsauth.LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
