package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pagetoll "github.com/pagetoll/pagetoll"
	"github.com/pagetoll/pagetoll/metrics"
	"github.com/pagetoll/pagetoll/ratelimit"
)

// ServiceConfig wires the HTTP surface to the core components.
type ServiceConfig struct {
	Gateway  *pagetoll.Gateway
	Registry *pagetoll.Registry
	Ingestor *pagetoll.Ingestor

	// SessionLimiter bounds payment-session issuance per client IP.
	// Nil disables limiting.
	SessionLimiter *ratelimit.Keyed

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Service is the owning process's HTTP surface.
type Service struct {
	cfg    ServiceConfig
	engine *gin.Engine
}

// NewService builds the router. Gin runs in release mode; callers wanting
// request logs attach their own middleware.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Service{cfg: cfg, engine: engine}

	engine.POST("/ingest", s.handleIngest)
	engine.GET("/capabilities", s.handleListCapabilities)
	engine.GET("/capabilities/:name", s.handleCapabilityInfo)
	engine.POST("/capabilities/execute", s.handleExecute)
	engine.GET("/payment-session", s.handlePaymentSession)
	engine.GET("/access", s.handleAccess)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return s
}

// Handler returns the service as a net/http handler.
func (s *Service) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Service) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Service) abortWithError(c *gin.Context, err error) {
	status := statusForKind(err)
	body := gin.H{"error": err.Error()}
	var pe *pagetoll.Error
	if errors.As(err, &pe) {
		body = gin.H{"error": pe.Message, "kind": pe.Kind}
		for k, v := range pe.Details {
			body[k] = v
		}
	}
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func (s *Service) handleIngest(c *gin.Context) {
	var req pagetoll.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, pagetoll.Errorf(pagetoll.KindValidation, "invalid request body: %v", err))
		return
	}

	result, err := s.cfg.Ingestor.Ingest(c.Request.Context(), req)
	if err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.Ingests.WithLabelValues("error").Inc()
		}
		s.abortWithError(c, err)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Ingests.WithLabelValues("ok").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Content monetized and tool created successfully!",
		"toolName":       result.ToolName,
		"lighthouseHash": result.CID,
	})
}

func (s *Service) handleListCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Registry.List())
}

func (s *Service) handleCapabilityInfo(c *gin.Context) {
	record, err := s.cfg.Registry.Lookup(c.Param("name"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type executeRequest struct {
	ToolName   string                 `json:"toolName"`
	Parameters map[string]interface{} `json:"parameters"`
}

func (s *Service) handleExecute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abortWithError(c, pagetoll.Errorf(pagetoll.KindValidation, "invalid request body: %v", err))
		return
	}
	if req.ToolName == "" {
		s.abortWithError(c, pagetoll.Errorf(pagetoll.KindValidation, "toolName is required"))
		return
	}

	result, err := s.cfg.Registry.Execute(req.ToolName, req.Parameters)
	if err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ToolExecutions.WithLabelValues("error").Inc()
		}
		s.abortWithError(c, err)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.ToolExecutions.WithLabelValues("ok").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"content": result})
}

func (s *Service) handlePaymentSession(c *gin.Context) {
	contentURL := c.Query("url")
	if contentURL == "" {
		s.abortWithError(c, pagetoll.Errorf(pagetoll.KindValidation, "url query parameter is required"))
		return
	}

	if !s.cfg.SessionLimiter.Allow(c.ClientIP(), time.Now()) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "too many payment session requests, slow down",
		})
		return
	}

	details, err := s.cfg.Gateway.RequestPayment(c.Request.Context(), contentURL)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SessionsOpened.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          "Payment required to access content.",
		"paymentId":        details.SessionToken,
		"recipientAddress": details.Recipient,
		"amount":           details.Amount,
		"currency":         details.Currency,
	})
}

func (s *Service) handleAccess(c *gin.Context) {
	sessionToken := c.Query("session")
	txRef := c.Query("proof")
	if sessionToken == "" || txRef == "" {
		s.abortWithError(c, pagetoll.Errorf(pagetoll.KindValidation,
			"session and proof query parameters are required"))
		return
	}

	result, err := s.cfg.Gateway.GetContent(c.Request.Context(), sessionToken, txRef)
	if err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.Verifications.WithLabelValues("unavailable").Inc()
		}
		s.abortWithError(c, err)
		return
	}

	if !result.Granted() {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.AccessDenials.WithLabelValues(result.Reason).Inc()
		}
		switch result.Reason {
		case pagetoll.ReasonPaymentNotVerified:
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error": "Payment verification failed.",
				"kind":  pagetoll.KindVerificationFailed,
			})
		default:
			// SessionInvalid and AlreadyConsumed look identical to the
			// caller: the session is gone and a new one must be requested.
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": "Invalid or expired paymentId.",
				"kind":  pagetoll.KindSessionNotFound,
			})
		}
		return
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Verifications.WithLabelValues("ok").Inc()
		s.cfg.Metrics.AccessGrants.Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified! Access granted.",
		"data":    result.Record,
	})
}
