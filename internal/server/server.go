// Package server exposes the pipeline as an HTTP trigger.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ExclusiveScanner/internal/usecase"
	"ExclusiveScanner/pkg/logger"
)

// Runner executes one pipeline invocation.
type Runner interface {
	Run(ctx context.Context, now time.Time, opts usecase.RunOptions) (usecase.Result, error)
}

// Handler serves the trigger and health endpoints.
type Handler struct {
	runner Runner
	now    func() time.Time
	logger *slog.Logger
}

// NewHandler wires the runner.
func NewHandler(runner Runner, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{runner: runner, now: time.Now, logger: log}
}

// NewRouter builds the gin engine with logging, recovery and CORS middleware.
func NewRouter(handler *Handler) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    logger.Writer(handler.logger, "http", slog.LevelInfo),
		SkipPaths: []string{"/health"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s %s %d %s %s",
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
				param.ErrorMessage,
			)
		},
	}))
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", handler.Health)
	r.GET("/scrape", handler.Scrape)
	r.POST("/scrape", handler.Scrape)

	return r
}

// New wraps the router in an http.Server whose error log goes to slog.
func New(addr string, handler *Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.New(handler.logger, "http", slog.LevelError),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// Scrape runs the pipeline once. Query flags no_save and skip_dedup mirror the CLI.
func (h *Handler) Scrape(c *gin.Context) {
	opts := usecase.RunOptions{
		NoSave:    queryBool(c, "no_save"),
		SkipDedup: queryBool(c, "skip_dedup"),
	}

	res, err := h.runner.Run(c.Request.Context(), h.now(), opts)
	if err != nil {
		h.logger.Error("run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": res.Message,
		"count":   res.Count,
	})
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
