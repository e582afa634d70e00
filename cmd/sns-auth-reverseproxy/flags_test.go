package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.bindAddr)
	assert.Equal(t, "http://localhost:8081", cfg.targetURL.String())
	assert.Empty(t, cfg.allowedTopics)
	assert.Empty(t, cfg.scopes)
	assert.Equal(t, confirmModeHTTP, cfg.confirmMode)
	assert.True(t, cfg.settings.AutoSubscribe)
	assert.Equal(t, 5000, cfg.settings.MaxCerts)
}

func TestParseFlagsFromEnv(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("autoResubscribe: false\nmaxCerts: 10\n"), 0o600))

	t.Setenv("SNSAUTH_BIND", "127.0.0.1:9000")
	t.Setenv("SNSAUTH_TOPIC_ARNS", "arn:aws:sns:us-east-1:012345678910:a, arn:aws:sns:eu-west-1:012345678910:b")
	t.Setenv("SNSAUTH_SCOPES", "a,b,")
	t.Setenv("SNSAUTH_SETTINGS", settingsPath)
	t.Setenv("SNSAUTH_CONFIRM_MODE", "api")
	t.Setenv("SNSAUTH_LOG_JSON", "true")

	cfg, err := parseFlags([]string{"--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.bindAddr)
	require.Len(t, cfg.allowedTopics, 2)
	assert.Equal(t, "eu-west-1", cfg.allowedTopics[1].Region)
	assert.Equal(t, []string{"a", "b"}, cfg.scopes)
	assert.False(t, cfg.settings.AutoResubscribe)
	assert.Equal(t, 10, cfg.settings.MaxCerts)
	assert.Equal(t, confirmModeAPI, cfg.confirmMode)
	assert.Equal(t, "debug", cfg.logLevel)
	assert.True(t, cfg.logJSON)
}

func TestParseFlagsInvalid(t *testing.T) {
	badSettings := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(badSettings, []byte("badOption: true\n"), 0o600))

	for name, args := range map[string][]string{
		"bad topic":        {"--topics", "arn:aws:iam::012345678910:role/nope"},
		"bad settings":     {"--settings", badSettings},
		"missing settings": {"--settings", filepath.Join(t.TempDir(), "missing.yaml")},
		"bad confirm mode": {"--confirm-mode", "carrier-pigeon"},
		"bad scheme":       {"--target", "ftp://localhost"},
		"missing socket":   {"--target", "unix:///nonexistent/target.sock"},
		"sqs no queue":     {"--target", "sqs://sqs.us-east-1.amazonaws.com/"},
		"unknown flag":     {"--nope"},
		"extra argument":   {"extra"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(args)
			assert.Error(t, err)
		})
	}
}

func TestParseFlagsSQSTarget(t *testing.T) {
	cfg, err := parseFlags([]string{"--target", "sqs://sqs.us-east-1.amazonaws.com/012345678910/deliveries"})
	require.NoError(t, err)

	assert.True(t, needsAWS(cfg))
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/012345678910/deliveries", sqsQueueURL(cfg.targetURL))
}
