package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SessionCookie string
	SessionSecure bool
	SessionTTL    time.Duration
	CORSOrigins   []string

	CronToken        string
	CronRatePerMin   int
	IngestRatePerSec int

	DedupLookback      time.Duration
	DedupCandidatePool int
}

type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
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
	sessionCookie := strings.TrimSpace(opts.SessionCookie)
	if sessionCookie == "" {
		sessionCookie = "newsdesk_session"
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	cronRate := opts.CronRatePerMin
	if cronRate <= 0 {
		cronRate = 6
	}
	ingestRate := opts.IngestRatePerSec
	if ingestRate <= 0 {
		ingestRate = 20
	}
	dedupLookback := opts.DedupLookback
	if dedupLookback <= 0 {
		dedupLookback = 72 * time.Hour
	}
	dedupPool := opts.DedupCandidatePool
	if dedupPool <= 0 {
		dedupPool = 200
	}

	return &Server{
		pool:   pool,
		logger: logger,
		opts: Options{
			Host:               host,
			Port:               port,
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			ShutdownTimeout:    shutdownTimeout,
			SessionCookie:      sessionCookie,
			SessionSecure:      opts.SessionSecure,
			SessionTTL:         sessionTTL,
			CORSOrigins:        opts.CORSOrigins,
			CronToken:          strings.TrimSpace(opts.CronToken),
			CronRatePerMin:     cronRate,
			IngestRatePerSec:   ingestRate,
			DedupLookback:      dedupLookback,
			DedupCandidatePool: dedupPool,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	allowOrigins := s.opts.CORSOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: len(s.opts.CORSOrigins) > 0,
		MaxAge:           3600,
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
	e.Use(requestMetrics())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	authed := api.Group("", s.requireAuth())
	authed.GET("/auth/me", s.handleMe)
	authed.POST("/auth/change-password", s.handleChangePassword)
	authed.GET("/me/points", s.handleMyPoints)
	authed.GET("/me/citizenship", s.handleMyCitizenship)
	authed.GET("/news/feed", s.handleNewsFeed)

	api.GET("/categories", s.handleListCategories)
	api.GET("/news", s.handleListNews)
	api.GET("/news/trending", s.handleTrendingNews)
	api.GET("/news/:news_id", s.handleGetNews)
	api.POST("/engage", s.handleEngage, s.optionalAuth())

	ingest := api.Group("/ingest", s.rateLimit(perSecondLimiter(s.opts.IngestRatePerSec)))
	ingest.POST("/news", s.handleIngestNews)

	cron := api.Group("/cron", s.requireCronToken(), s.rateLimit(perMinuteLimiter(s.opts.CronRatePerMin)))
	cron.POST("/dedup", s.handleCronDedup)
	cron.POST("/trending", s.handleCronTrending)
	cron.POST("/sessions/cleanup", s.handleCronSessionCleanup)

	editor := api.Group("", s.requireAuth(), s.requireRole("editor"))
	editor.POST("/categories", s.handleCreateCategory)
	editor.PUT("/categories/:category_id", s.handleUpdateCategory)
	editor.POST("/categories/reorder", s.handleReorderCategories)
	editor.GET("/tags", s.handleListTags)
	editor.POST("/tags", s.handleCreateTag)
	editor.PUT("/tags/:tag_id", s.handleUpdateTag)
	editor.DELETE("/tags/:tag_id", s.handleDeleteTag)
	editor.POST("/tags/:tag_id/merge", s.handleMergeTags)

	editor.GET("/duplicates", s.handleListDuplicateGroups)
	editor.GET("/duplicates/:group_id", s.handleGetDuplicateGroup)
	editor.POST("/duplicates/detect", s.handleDetectDuplicates)
	editor.POST("/duplicates/:group_id/merge", s.handleMergeDuplicateGroup)
	editor.POST("/duplicates/:group_id/dismiss", s.handleDismissDuplicateGroup)

	editor.DELETE("/news/:news_id", s.handleDeleteNews)
	editor.PUT("/news/:news_id/category", s.handleSetNewsCategory)
	editor.PUT("/news/:news_id/tags", s.handleSetNewsTags)
	editor.POST("/news/bulk", s.handleBulkNews)
	editor.POST("/articles/bulk", s.handleBulkArticles)
	editor.GET("/bulk-runs", s.handleListBulkRuns)
	editor.GET("/bulk-runs/:run_uuid", s.handleGetBulkRun)

	editor.GET("/analytics/overview", s.handleAnalyticsOverview)
	editor.GET("/analytics/articles", s.handleAnalyticsArticles)
	editor.GET("/analytics/engagement", s.handleAnalyticsEngagement)

	editor.POST("/tools/extract", s.handleExtractPreview)
	editor.POST("/tools/translate", s.handleTranslate)

	admin := api.Group("", s.requireAuth(), s.requireRole("admin"))
	admin.DELETE("/categories/:category_id", s.handleDeleteCategory)
	admin.POST("/users", s.handleCreateUser)
	admin.PUT("/users/:user_id/role", s.handleSetUserRole)

	author := api.Group("", s.requireAuth(), s.requireRole("author"))
	author.GET("/articles", s.handleListArticles)
	author.GET("/articles/:article_id", s.handleGetArticle)
	author.POST("/articles", s.handleCreateArticle)
	author.PUT("/articles/:article_id", s.handleUpdateArticle)
	author.POST("/articles/:article_id/status", s.handleSetArticleStatus)
	author.PUT("/articles/:article_id/tags", s.handleSetArticleTags)
	author.DELETE("/articles/:article_id", s.handleDeleteArticle)

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

	s.logger.Info().Str("addr", addr).Msg("newsdesk server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("newsdesk server stopped")
	return nil
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
	dbStatus := "ok"
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		dbStatus = "unreachable"
	}
	return success(c, map[string]any{
		"service":  "newsdesk",
		"database": dbStatus,
		"time":     globaltime.UTC(),
	})
}

func decodeJSONBody(c echo.Context, dest any) error {
	body := c.Request().Body
	if body == nil {
		return fmt.Errorf("request body is required")
	}
	defer func() { _ = body.Close() }()

	decoder := json.NewDecoder(io.LimitReader(body, 4<<20))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("body contains trailing content")
	}
	return nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, fmt.Errorf("is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("must be a positive integer")
	}
	return id, nil
}
