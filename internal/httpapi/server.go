package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"lexibridge/internal/aggregate"
	"lexibridge/internal/globaltime"
	"lexibridge/internal/history"
	"lexibridge/internal/review"
	"lexibridge/internal/settings"
	"lexibridge/internal/translation"
)

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Server struct {
	aggregator *aggregate.Aggregator
	historyDB  *history.Store
	reviews    *review.Queue
	settings   *settings.Store
	registry   *translation.Registry
	logger     zerolog.Logger
	opts       Options
}

func NewServer(aggregator *aggregate.Aggregator, historyDB *history.Store, reviews *review.Queue, settingsStore *settings.Store, registry *translation.Registry, logger zerolog.Logger, opts Options) *Server {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		addr = ":8085"
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		aggregator: aggregator,
		historyDB:  historyDB,
		reviews:    reviews,
		settings:   settingsStore,
		registry:   registry,
		logger:     logger,
		opts: Options{
			Addr:            addr,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AllowedOrigins:  origins,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.aggregator == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	httpServer := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", s.opts.Addr).Msg("lexibridge server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("lexibridge server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/providers", s.handleProviders)
	api.POST("/translate", s.handleTranslate)
	api.POST("/translate/page", s.handleTranslatePage)

	api.GET("/history", s.handleHistoryList)
	api.DELETE("/history", s.handleHistoryClear)
	api.DELETE("/history/:index", s.handleHistoryDelete)

	api.GET("/settings", s.handleSettingsGet)
	api.PUT("/settings", s.handleSettingsPut)
	api.POST("/settings/import", s.handleSettingsImport)
	api.PUT("/settings/credentials/:provider", s.handleCredentialPut)
	api.DELETE("/settings/credentials/:provider", s.handleCredentialDelete)

	api.GET("/review/words", s.handleReviewList)
	api.POST("/review/words", s.handleReviewUpsert)
	api.DELETE("/review/words/:id", s.handleReviewDelete)
	api.GET("/review/due", s.handleReviewDue)
	api.POST("/review/import", s.handleReviewImport)
	api.POST("/review/words/:id/answer", s.handleReviewAnswer)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "lexibridge",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleProviders(c echo.Context) error {
	type providerInfo struct {
		Name        string   `json:"name"`
		DisplayName string   `json:"displayName"`
		Languages   []string `json:"languages"`
	}

	items := make([]providerInfo, 0, 8)
	for _, provider := range s.registry.All() {
		items = append(items, providerInfo{
			Name:        provider.Name(),
			DisplayName: provider.DisplayName(),
			Languages:   provider.SupportedLanguages(),
		})
	}
	return success(c, map[string]any{"items": items})
}
