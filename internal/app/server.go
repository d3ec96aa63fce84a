package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/sttalk999/sttalk/pkg/middleware"
	investorroutes "github.com/sttalk999/sttalk/pkg/routes/investor"
	matchroutes "github.com/sttalk999/sttalk/pkg/routes/match"
)

const shutdownTimeout = 15 * time.Second

// NewServer builds the echo server. Start must have succeeded first.
func (a *App) NewServer(ctx context.Context) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomiddleware.Recover())
	if a.config.TracingEnabled {
		e.Use(otelecho.Middleware(a.config.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.config.AllowOrigins,
		AllowMethods: a.config.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	a.Health.Register(api)

	secured := api.Group("")
	if a.config.AuthEnabled {
		verifier, err := middleware.NewOIDCVerifier(ctx, a.config.AuthIssuerURL, a.config.AuthClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		secured.Use(middleware.Authentication(a.logger, verifier))
	}

	matchroutes.NewHandler(a.Ranker, a.Lifecycle, a.logger).Register(secured)
	investorroutes.NewHandler(a.Investors).Register(secured)
	return e, nil
}

// Serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *App) Serve(ctx context.Context) error {
	e, err := a.NewServer(ctx)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		ReadTimeout:       time.Duration(a.config.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(a.config.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(a.config.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(a.config.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    a.config.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("Listening on %s", server.Addr)
		errCh <- e.StartServer(server)
	}()
	a.Health.SetReady(true)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("Shutting down HTTP server")
	return e.Shutdown(shutdownCtx)
}
