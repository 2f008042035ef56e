package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/claimview/internal/config"
	"github.com/ehr/claimview/internal/domain/claim"
	"github.com/ehr/claimview/internal/platform/middleware"
	"github.com/ehr/claimview/internal/platform/x12"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "claimview",
		Short:        "X12 837 claim viewer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.cfg = cfg
			// Subcommands write results to stdout, so CLI logs go to stderr.
			a.logger = newLogger(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}

	rootCmd.AddCommand(parseCmd(a))
	rootCmd.AddCommand(segmentsCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

func newLogger(w io.Writer, cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger()
}

func parseCmd(a *app) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an 837 claim file into viewer sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.OutputFormat
			}
			if !claim.ValidFormat(format) {
				return fmt.Errorf("unsupported output format %q", format)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := claim.NewParser(a.logger).Parse(f)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), output, res, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default OUTPUT_FORMAT)")

	return cmd
}

func segmentsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "segments <file>",
		Short: "Show detected encoding, delimiters and segment counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.OutputFormat
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			env, err := x12.Read(f)
			if err != nil {
				return err
			}

			return claim.Encode(cmd.OutOrStdout(), env.Summarize(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: json or yaml (default OUTPUT_FORMAT)")

	return cmd
}

func writeOutput(stdout io.Writer, path string, v interface{}, format string) error {
	if path == "" {
		return claim.Encode(stdout, v, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := claim.Encode(f, v, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the claim viewer API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server logs to stdout like any other service.
			a.logger = newLogger(os.Stdout, a.cfg)
			return runServer(a.cfg, a.logger)
		},
	}
}

// newServer builds the echo instance with middleware and routes.
func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	apiV1.Use(middleware.BodyLimit(cfg.MaxUploadSize))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	claimHandler := claim.NewHandler(claim.NewParser(logger))
	claimHandler.RegisterRoutes(apiV1)

	return e
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	e := newServer(cfg, logger)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
