package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/thomasdesr/snsauth"
	"github.com/thomasdesr/snsauth/confirmers"
	"github.com/thomasdesr/snsauth/internal/errorutil"
	"github.com/thomasdesr/snsauth/internal/logging"
	"github.com/thomasdesr/snsauth/snshttp"
	"github.com/thomasdesr/snsauth/snssigner/certcache"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// A .env file is optional; flags default to the environment it populates
	envFile := getEnvWithDefault("SNSAUTH_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errorutil.Wrapf(err, "failed to load %s", envFile)
	}

	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.logLevel, JSON: cfg.logJSON})
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := createReverseProxy(ctx, cfg, logger)
	if err != nil {
		return errorutil.Wrap(err, "failed to create reverse proxy")
	}

	listener, err := net.Listen("tcp", cfg.bindAddr)
	if err != nil {
		return errorutil.Wrapf(err, "failed to listen on %s", cfg.bindAddr)
	}

	logger.Info("starting sns auth reverse proxy",
		logging.F("bind", listener.Addr().String()),
		logging.F("target", cfg.targetURL.String()),
		logging.F("topics", len(cfg.allowedTopics)),
		logging.F("scopes", cfg.scopes),
		logging.F("confirm_mode", cfg.confirmMode),
	)

	errC := make(chan error, 1)
	go func() { errC <- srv.Serve(listener) }()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// createReverseProxy builds the authenticating server for cfg. extra options
// are applied after the ones derived from cfg.
func createReverseProxy(ctx context.Context, cfg *config, logger logging.Logger, extra ...snsauth.Option) (*snshttp.Server, error) {
	cache, err := certcache.New(
		certcache.WithTransport(cfg.httpTransport),
		certcache.WithMaxEntries(cfg.settings.MaxCerts),
		certcache.WithUseCache(cfg.settings.UseCache),
		certcache.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	opts := []snsauth.Option{
		snsauth.WithLogger(logger),
		snsauth.WithHTTPTransport(cfg.httpTransport),
		snsauth.WithCertificateSource(cache),
		snsauth.WithAllowedTopics(cfg.allowedTopics),
	}

	clients := cfg.aws
	if clients == nil && needsAWS(cfg) {
		if clients, err = loadAWSClients(ctx); err != nil {
			return nil, err
		}
	}
	if clients != nil {
		if err := checkIdentity(ctx, clients.sts, logger); err != nil {
			return nil, err
		}
	}

	if cfg.confirmMode == confirmModeAPI {
		opts = append(opts, snsauth.WithConfirmer(confirmers.NewAPIConfirmer(clients.sns)))
	}

	auth, err := snsauth.NewAuthenticator(cfg.settings, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}

	var srv *snshttp.Server
	switch cfg.targetURL.Scheme {
	case "http", "https":
		srv, err = httpTargetProxy(cfg.targetURL, auth, cfg.scopes)
	case "unix", "http+unix":
		srv, err = unixTargetProxy(cfg.targetURL, auth, cfg.scopes)
	case "sqs":
		srv = snshttp.NewForwarder(&snshttp.SQSForwarder{
			Client:   clients.sqs,
			QueueURL: sqsQueueURL(cfg.targetURL),
			Logger:   logger,
		}, auth, cfg.scopes...)
	default:
		return nil, fmt.Errorf("unsupported scheme %q", cfg.targetURL.Scheme)
	}
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler(auth)).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(srv.Server.Handler)
	srv.Server.Handler = router

	return srv, nil
}

// httpTargetProxy creates and configures a proxy for HTTP/HTTPS targets
func httpTargetProxy(targetURL *url.URL, auth *snsauth.Authenticator, scopes []string) (*snshttp.Server, error) {
	proxy, err := snshttp.NewReverseProxy(targetURL, auth, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse proxy: %v", err)
	}

	if targetURL.Scheme == "http" {
		proxy.ReverseProxy.Transport = &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				// We know where we're going, and we don't want the reverse
				// proxy's choices to affect that.
				var d net.Dialer
				return d.DialContext(ctx, "tcp", targetURL.Host)
			},
		}
	}

	return proxy.Server, nil
}

// unixTargetProxy creates and configures a proxy for Unix socket targets
func unixTargetProxy(targetURL *url.URL, auth *snsauth.Authenticator, scopes []string) (*snshttp.Server, error) {
	// httputil.ReverseProxy only speaks "http", the socket path stands in
	// for the host
	httpURL := &url.URL{
		Scheme: "http",
		Host:   targetURL.EscapedPath(),
	}

	proxy, err := snshttp.NewReverseProxy(httpURL, auth, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse proxy: %v", err)
	}

	proxy.ReverseProxy.Transport = &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", targetURL.Path)
		},
	}

	return proxy.Server, nil
}

type healthz struct {
	Status       string          `json:"status"`
	Certificates *certcache.Stats `json:"certificates,omitempty"`
}

func healthzHandler(auth *snsauth.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthz{Status: "ok"}
		if cache, ok := auth.CertificateSource().(*certcache.Cache); ok {
			stats := cache.Stats()
			resp.Certificates = &stats
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
