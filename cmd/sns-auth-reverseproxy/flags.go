package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/spf13/pflag"
	"github.com/thomasdesr/snsauth"
	"github.com/thomasdesr/snsauth/internal/errorutil"
)

const (
	confirmModeHTTP = "http"
	confirmModeAPI  = "api"
)

// getEnvWithDefault returns the value of the environment variable if set, otherwise returns the default value
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// config holds the parsed configuration for the reverse proxy
type config struct {
	bindAddr      string
	targetURL     *url.URL
	allowedTopics []arn.ARN
	scopes        []string
	settings      snsauth.Settings
	confirmMode   string
	logLevel      string
	logJSON       bool

	// httpTransport carries certificate fetches and confirmations, nil for
	// http.DefaultTransport
	httpTransport http.RoundTripper

	// aws is loaded from the default credential chain when nil and needed
	aws *awsClients
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sns-auth-reverseproxy", pflag.ContinueOnError)
	fs.String("bind", getEnvWithDefault("SNSAUTH_BIND", ":8080"), "Address to bind the reverse proxy to")
	fs.String("target", getEnvWithDefault("SNSAUTH_TARGET", "http://localhost:8081"), "Target to forward authenticated deliveries to (http://, http+unix:// or sqs://<queue host>/<account>/<queue>)")
	fs.String("topics", getEnvWithDefault("SNSAUTH_TOPIC_ARNS", ""), "Comma-separated list of allowed topic ARNs (default: any topic)")
	fs.String("scopes", getEnvWithDefault("SNSAUTH_SCOPES", ""), "Comma-separated list of topic names to forward (default: any topic)")
	fs.String("settings", getEnvWithDefault("SNSAUTH_SETTINGS", ""), "Path to a YAML settings file")
	fs.String("confirm-mode", getEnvWithDefault("SNSAUTH_CONFIRM_MODE", confirmModeHTTP), "How to confirm subscriptions: http (visit SubscribeURL) or api (SNS ConfirmSubscription)")
	fs.String("log-level", getEnvWithDefault("SNSAUTH_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	fs.Bool("log-json", getEnvWithDefault("SNSAUTH_LOG_JSON", "") == "true", "Log as JSON")
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseFlags parses command line flags and returns a config struct
func parseFlags(args []string) (*config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	bindAddr, _ := fs.GetString("bind")
	targetAddr, _ := fs.GetString("target")
	topicsFlag, _ := fs.GetString("topics")
	scopesFlag, _ := fs.GetString("scopes")
	settingsPath, _ := fs.GetString("settings")
	confirmMode, _ := fs.GetString("confirm-mode")
	logLevel, _ := fs.GetString("log-level")
	logJSON, _ := fs.GetBool("log-json")

	topics, err := snsauth.ParseTopicARNs(splitList(topicsFlag))
	if err != nil {
		return nil, errorutil.Wrap(err, "invalid --topics")
	}

	settings := snsauth.DefaultSettings()
	if settingsPath != "" {
		settings, err = snsauth.LoadSettings(settingsPath)
		if err != nil {
			return nil, errorutil.Wrapf(err, "invalid settings file %q", settingsPath)
		}
	}

	switch confirmMode {
	case confirmModeHTTP, confirmModeAPI:
	default:
		return nil, fmt.Errorf("unsupported confirm mode %q, must be %q or %q", confirmMode, confirmModeHTTP, confirmModeAPI)
	}

	targetURL, err := parseTarget(targetAddr)
	if err != nil {
		return nil, err
	}

	return &config{
		bindAddr:      bindAddr,
		targetURL:     targetURL,
		allowedTopics: topics,
		scopes:        splitList(scopesFlag),
		settings:      settings,
		confirmMode:   confirmMode,
		logLevel:      logLevel,
		logJSON:       logJSON,
	}, nil
}

func parseTarget(targetAddr string) (*url.URL, error) {
	targetURL, err := url.Parse(targetAddr)
	if err != nil {
		return nil, errorutil.Wrapf(err, "invalid target URL %q", targetAddr)
	}

	// Validate scheme and path
	switch targetURL.Scheme {
	case "http", "https":
		if targetURL.Host == "" {
			return nil, fmt.Errorf("target URL %q has no host", targetAddr)
		}
	case "unix", "http+unix":
		if targetURL.Path == "" {
			return nil, fmt.Errorf("unix socket path cannot be empty")
		}

		if !filepath.IsAbs(targetURL.Path) {
			abs, err := filepath.Abs(targetURL.Path)
			if err != nil {
				return nil, errorutil.Wrapf(err, "failed to get absolute path for %q", targetURL.Path)
			}
			targetURL.Path = abs
		}

		if _, err := os.Stat(targetURL.Path); err != nil {
			return nil, errorutil.Wrapf(err, "unix socket path %q is not accessible", targetURL.Path)
		}
	case "sqs":
		if targetURL.Host == "" || strings.Trim(targetURL.Path, "/") == "" {
			return nil, fmt.Errorf("sqs target %q must be sqs://<queue host>/<account>/<queue>", targetAddr)
		}
	default:
		return nil, fmt.Errorf("unsupported target scheme %q, must be http://, https://, unix:// or sqs://", targetURL.Scheme)
	}

	return targetURL, nil
}
