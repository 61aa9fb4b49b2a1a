package commands

import (
	"fmt"
	"io"
	nethttp "net/http"

	"github.com/gaborage/dataaccess/activity"
	"github.com/gaborage/dataaccess/config"
	"github.com/gaborage/dataaccess/cookies"
	"github.com/gaborage/dataaccess/credentials"
	"github.com/gaborage/dataaccess/executor"
	"github.com/gaborage/dataaccess/http"
	"github.com/gaborage/dataaccess/logger"
	"github.com/gaborage/dataaccess/observability"
	"github.com/gaborage/dataaccess/request"
	"github.com/gaborage/dataaccess/response"
)

// session holds the components wired for one command invocation
type session struct {
	cfg      *config.Config
	log      logger.Logger
	store    credentials.Store
	jar      nethttp.CookieJar
	provider observability.Provider
	executor *executor.Executor
}

func newSession(opts *GlobalOptions, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		cfg.App.BaseURL = opts.BaseURL
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Pretty {
		cfg.Log.Pretty = true
	}

	log := logger.NewWithWriter(stderr, cfg.Log.Level, cfg.Log.Pretty, nil)

	jar, err := cookies.NewJar()
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	provider, err := observability.NewProvider(&cfg.Observability, stderr, log)
	if err != nil {
		return nil, err
	}

	store := newStore(cfg.Credentials)

	transport := opts.transport
	if transport == nil {
		transport = http.NewBuilder(log).WithConfig(cfg.Client.Transport()).Build()
	}

	builder := request.NewBuilder(log).
		WithBaseURL(cfg.App.BaseURL).
		WithAppVersion(cfg.App.Version).
		WithAuthScheme(cfg.Credentials.AuthScheme).
		WithCredentials(store).
		WithCookieJar(jar).
		WithTraceParent(cfg.App.TraceParent)

	ex := executor.New(transport,
		executor.WithLogger(log),
		executor.WithBuilder(builder),
		executor.WithValidator(response.NewValidator(store, jar, log)),
		executor.WithPolicy(cfg.Retry.Policy()),
		executor.WithActivity(activity.NewCounter(activity.NewLogReporter(log))),
		executor.WithMeterProvider(provider.MeterProvider()),
		executor.WithTracerProvider(provider.TracerProvider()),
	)

	return &session{
		cfg:      cfg,
		log:      log,
		store:    store,
		jar:      jar,
		provider: provider,
		executor: ex,
	}, nil
}

func newStore(cfg config.CredentialsConfig) credentials.Store {
	if cfg.Backend == config.BackendKeyring {
		return credentials.NewKeyringStore(cfg.Service)
	}
	return credentials.NewMemoryStore()
}

// Close stops delivery and flushes telemetry
func (s *session) Close() error {
	s.executor.Close()
	return observability.Shutdown(s.provider, observability.DefaultShutdownTimeout)
}

func (s *session) closeQuietly() {
	if err := s.Close(); err != nil {
		s.log.Warn().Err(err).Msg("Shutdown failed")
	}
}
