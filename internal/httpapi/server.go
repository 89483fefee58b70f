package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tommyzki/tommyzki-translate/internal/globaltime"
	"github.com/tommyzki/tommyzki-translate/internal/preview"
	"github.com/tommyzki/tommyzki-translate/internal/translation"
	"github.com/tommyzki/tommyzki-translate/internal/view"
)

//go:embed assets
var embeddedAssets embed.FS

const (
	legacyTranslatePath = "/api/translate"
	maxBodyBytes        = 1 << 20
)

type Options struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	KeepAliveInterval time.Duration
	AllowedOrigins    []string
}

// SessionStore is the part of preview.Manager the server needs.
type SessionStore interface {
	Create() (string, *preview.Orchestrator, error)
	Get(id string) (*preview.Orchestrator, error)
	Delete(id string) error
}

type Server struct {
	translator translation.Translator
	sessions   SessionStore
	catalog    *view.Catalog
	logger     zerolog.Logger
	opts       Options
}

func NewServer(translator translation.Translator, sessions SessionStore, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 9002
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	// Commit and the legacy endpoint wait on the model; SSE streams clear their own deadline.
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	keepAlive := opts.KeepAliveInterval
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	origins := make([]string, 0, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		translator: translator,
		sessions:   sessions,
		catalog:    view.NewCatalog(),
		logger:     logger,
		opts: Options{
			Host:              host,
			Port:              port,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ShutdownTimeout:   shutdownTimeout,
			KeepAliveInterval: keepAlive,
			AllowedOrigins:    origins,
		},
	}
}

// Handler builds the echo instance with every route registered.
func (s *Server) Handler() (*echo.Echo, error) {
	if s == nil || s.translator == nil || s.sessions == nil {
		return nil, fmt.Errorf("server is not initialized")
	}

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

	assetsSub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return nil, fmt.Errorf("load embedded assets: %w", err)
	}
	indexHTML, err := fs.ReadFile(assetsSub, "index.html")
	if err != nil {
		return nil, fmt.Errorf("load index.html: %w", err)
	}

	e.GET("/", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	e.GET("/assets/*", echo.WrapHandler(http.StripPrefix("/assets/", http.FileServer(http.FS(assetsSub)))))

	e.GET(legacyTranslatePath, s.handleTranslateUsage)
	e.POST(legacyTranslatePath, s.handleTranslate)

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/languages", s.handleLanguages)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.PUT("/sessions/:id/input", s.handleSetInput)
	api.POST("/sessions/:id/commit", s.handleCommit)
	api.DELETE("/sessions/:id/notices/:notice_id", s.handleDismissNotice)
	api.GET("/sessions/:id/events", s.handleSessionEvents)

	return e, nil
}

func (s *Server) Start(ctx context.Context) error {
	e, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
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

	s.logger.Info().Str("addr", addr).Msg("tommyzki web server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("tommyzki web server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
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

	path := c.Request().URL.Path
	switch {
	case path == legacyTranslatePath:
		_ = legacyFail(c, status, message, nil)
	case strings.HasPrefix(path, "/api/"):
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
	default:
		_ = c.String(status, message)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "tommyzki",
		"time":    globaltime.UTC(),
	})
}

var errEmptyBody = errors.New("request body is required")

// decodeJSONBody reads exactly one JSON value from the request body.
func decodeJSONBody(c echo.Context, out any) error {
	body := c.Request().Body
	if body == nil {
		return errEmptyBody
	}

	decoder := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body: trailing content")
	}
	return nil
}
