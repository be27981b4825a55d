package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patentdesk/internal/caseindex"
	"patentdesk/internal/config"
	"patentdesk/internal/usecase"
)

const defaultMaxBodyBytes = 10 << 20

// CaseLookup resolves a case number to its non-empty export fields.
type CaseLookup interface {
	Lookup(caseNumber string) ([]caseindex.Field, error)
}

type Server struct {
	cfg    config.Config
	r      *gin.Engine
	logger *zap.Logger

	run   *usecase.RunVerification
	cases CaseLookup
	audit usecase.AuditEventRepository

	maxBodyBytes int64

	// runMu serializes verification runs: one document at a time.
	runMu sync.Mutex
}

type ServerDeps struct {
	Run          *usecase.RunVerification
	Cases        CaseLookup
	Audit        usecase.AuditEventRepository
	Logger       *zap.Logger
	MaxBodyBytes int64
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		cfg:          cfg,
		r:            r,
		logger:       logger,
		run:          deps.Run,
		cases:        deps.Cases,
		audit:        deps.Audit,
		maxBodyBytes: deps.MaxBodyBytes,
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		auditMode := "off"
		if s.audit != nil {
			auditMode = "on"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "audit": auditMode, "cases": s.cases != nil})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/verifications", s.handleVerify)
		v1.GET("/cases/:case_number", s.handleCase)
		v1.GET("/audit/chain", s.handleAuditChain)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening", zap.String("addr", s.cfg.HTTPAddr))
	return srv.ListenAndServe()
}

// requestLogger logs each request once it has been handled.
func requestLogger(zl *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zl.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("length", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
