package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/parley-cli/internal/adapters/config"
	"github.com/bnema/parley-cli/internal/adapters/remote/httpapi"
	filestore "github.com/bnema/parley-cli/internal/adapters/storage/file"
	"github.com/bnema/parley-cli/internal/application"
	"github.com/bnema/parley-cli/internal/domain"
	"github.com/bnema/parley-cli/internal/ports"
)

type app struct {
	cfg       config.Config
	sessions  *application.SessionStore
	probe     *application.ConnectionProbe
	lifecycle *application.AuthLifecycle
	log       zerolog.Logger
	now       func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger()

	// Materialize a config file on first run so users have something to edit.
	if home, err := os.UserHomeDir(); err == nil {
		configPath := filepath.Join(home, ".parley", "config.toml")
		if err := config.WriteDefaultFile(configPath, cfg); err != nil {
			logger.Warn().Err(err).Msg("write default config file")
		}
	}

	storage := filestore.NewStore(cfg.StorageDir)
	sessions := application.NewSessionStore(storage, ports.SystemClock{}, logger)
	dialer := httpapi.Dialer{BaseURL: cfg.ServerURL, HTTPClient: http.DefaultClient}
	probe := application.NewConnectionProbe(dialer, cfg.HealthTimeout, logger)
	lifecycle := application.NewAuthLifecycle(sessions, probe, ports.SystemClock{}, logger).
		WithStartupTimeout(cfg.StartupTimeout)

	return &app{
		cfg:       cfg,
		sessions:  sessions,
		probe:     probe,
		lifecycle: lifecycle,
		log:       logger,
		now:       time.Now,
	}, nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if raw := os.Getenv("PARLEY_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// startup probes the chat service and restores any persisted session, with a
// spinner while the probe settles.
func (a *app) startup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.probe.Connect(ctx, domain.Identity{})
	return runProbeSpinner(ctx, cmd.ErrOrStderr(), func(ctx context.Context) error {
		a.lifecycle.Initialize(ctx)
		return nil
	})
}

// service waits for the current probe generation to settle and returns the
// capability handle, or a descriptive error when the service is unreachable.
func (a *app) service(ctx context.Context) (ports.ChatService, error) {
	state, err := a.probe.WaitSettled(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for connection: %w", err)
	}
	if state != application.ConnStateReady {
		return nil, fmt.Errorf("%w: %s", domain.ErrProbeNotReady, a.probe.LastError())
	}

	return a.probe.Service()
}
