// Package server exposes the question pipeline and conversation management
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"lexrag/config"
	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/metrics"
	"lexrag/internal/usecase"
)

// Rebuilder reindexes the listed law types.
type Rebuilder interface {
	Rebuild(ctx context.Context, lawTypes []config.LawType, progress func(usecase.IndexResult)) ([]usecase.IndexResult, error)
}

// Server routes HTTP requests to the use cases. Rebuilds take the write side
// of mu so no question runs against a half-built index.
type Server struct {
	conversations *usecase.ConversationUseCase
	rebuilder     Rebuilder
	lawTypes      []config.LawType
	metrics       *metrics.Metrics
	logger        logging.Logger

	mu     sync.RWMutex
	engine *gin.Engine
}

func New(
	conversations *usecase.ConversationUseCase,
	rebuilder Rebuilder,
	lawTypes []config.LawType,
	m *metrics.Metrics,
	logger logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		conversations: conversations,
		rebuilder:     rebuilder,
		lawTypes:      lawTypes,
		metrics:       m,
		logger:        logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	r.GET("/", s.initOrRestore)
	r.POST("/update_db", s.updateDB)
	r.POST("/ask", s.ask)
	r.GET("/download_conversation", s.downloadConversation)
	r.DELETE("/delete_conversation", s.deleteConversation)
	r.GET("/get_conversation_detail", s.conversationDetail)
	r.GET("/get_conversations", s.listConversations)
	r.POST("/new_conversation", s.newConversation)
	r.POST("/switch_conversation", s.switchConversation)
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", logging.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)))
	}
}

func errorJSON(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

// fail maps use case errors to HTTP responses.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		errorJSON(c, http.StatusNotFound, "세션이 없습니다.")
	case errors.Is(err, domain.ErrConversationNotFound):
		errorJSON(c, http.StatusNotFound, "대화가 존재하지 않습니다.")
	case errors.Is(err, domain.ErrEmptyQuery):
		errorJSON(c, http.StatusBadRequest, "질문이 비어 있습니다.")
	default:
		s.logger.Error("request failed", logging.String("path", c.Request.URL.Path), logging.Err(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
	}
}
